package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/models"
)

// Querier is the subset of *pgxpool.Pool the backend needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Ensure Backend implements interfaces.Backend
var _ interfaces.Backend = (*Backend)(nil)

// Backend reads the catalog straight from Postgres. Every row is returned as the JSON
// document the HTTP API would have produced for it.
type Backend struct {
	db     Querier
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewBackend creates a backend over an existing connection
func NewBackend(db Querier, logger *zap.Logger) *Backend {
	return &Backend{db: db, logger: logger}
}

// Connect opens a connection pool to databaseURL and verifies it
func Connect(ctx context.Context, databaseURL string, maxConns int32, logger *zap.Logger) (*Backend, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	logger.Info("Postgres pool initialized", zap.Int32("max_conns", poolCfg.MaxConns))

	b := NewBackend(pool, logger)
	b.pool = pool
	return b, nil
}

// Close releases the pool opened by Connect
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

type documentRow struct {
	Doc   json.RawMessage
	Total int64
}

func scanDocument(row pgx.CollectableRow) (documentRow, error) {
	var d documentRow
	err := row.Scan(&d.Doc, &d.Total)
	return d, err
}

// ExecuteQuery implements interfaces.Backend
func (b *Backend) ExecuteQuery(ctx context.Context, queryKey string, q models.BackendQuery) (*models.QueryResult, error) {
	startTime := time.Now()

	sql, args, err := BuildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Resource, err)
	}

	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", q.Resource, err)
	}

	result := &models.QueryResult{Rows: make([]json.RawMessage, len(docs))}
	for i, d := range docs {
		result.Rows[i] = d.Doc
	}
	if len(docs) > 0 {
		result.TotalCount = int(docs[0].Total)
	} else if q.Count && q.Offset > 0 {
		// the window count is gone when the page starts past the last row
		total, err := b.count(ctx, q)
		if err != nil {
			return nil, err
		}
		result.TotalCount = total
	}

	b.logger.Debug("Postgres query completed",
		zap.String("key", queryKey),
		zap.String("resource", q.Resource),
		zap.Int("rows", len(docs)),
		zap.Duration("elapsed", time.Since(startTime)))

	return result, nil
}

func (b *Backend) count(ctx context.Context, q models.BackendQuery) (int, error) {
	sql, args, err := BuildCountQuery(q)
	if err != nil {
		return 0, err
	}

	rows, err := b.db.Query(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Resource, err)
	}
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Resource, err)
	}
	return int(total), nil
}
