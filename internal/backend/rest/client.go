package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/models"
)

const restPath = "/rest/v1/"

// embedded relations fetched with each resource
var selects = map[string]string{
	"products": "*,game_editions(*),subscription_plans(*,durations:subscription_durations(*))," +
		"giftcard_denominations(*),software_license_types(*,durations:software_license_durations(*))",
}

// APIError is a non-2xx answer of the data store
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("data store returned %d: %s", e.StatusCode, e.Message)
}

// Ensure Client implements interfaces.Backend
var _ interfaces.Backend = (*Client)(nil)

// Client queries a PostgREST style HTTP API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the API rooted at baseURL.
// Per-request deadlines come from the caller's context.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid data store url %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ExecuteQuery implements interfaces.Backend
func (c *Client) ExecuteQuery(ctx context.Context, queryKey string, q models.BackendQuery) (*models.QueryResult, error) {
	startTime := time.Now()

	req, err := c.newRequest(ctx, q)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	total := len(rows)
	if q.Count {
		if n, ok := parseContentRange(resp.Header.Get("Content-Range")); ok {
			total = n
		}
	}

	c.logger.Debug("Data store query completed",
		zap.String("key", queryKey),
		zap.String("resource", q.Resource),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(startTime)))

	return &models.QueryResult{Rows: rows, TotalCount: total}, nil
}

func (c *Client) newRequest(ctx context.Context, q models.BackendQuery) (*http.Request, error) {
	if q.Resource == "" {
		return nil, fmt.Errorf("query resource cannot be empty")
	}

	params := url.Values{}
	sel, ok := selects[q.Resource]
	if !ok {
		sel = "*"
	}
	params.Set("select", sel)

	for _, f := range q.Filters {
		switch f.Op {
		case models.OpEq:
			params.Add(f.Field, "eq."+fmt.Sprint(f.Value))
		case models.OpILike:
			params.Add(f.Field, "ilike.*"+escapeLike(fmt.Sprint(f.Value))+"*")
		default:
			return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}

	if len(q.Order) > 0 {
		clauses := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			clauses[i] = o.Field + "." + dir
		}
		params.Set("order", strings.Join(clauses, ","))
	}

	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	endpoint := c.baseURL + restPath + q.Resource + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if q.Count {
		req.Header.Set("Prefer", "count=exact")
	}

	return req, nil
}

// The data store turns * into a LIKE wildcard and cannot escape it, so it is dropped.
// LIKE metacharacters are escaped to match literally.
var likeEscaper = strings.NewReplacer(`*`, ``, `\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// parseContentRange reads the total from "0-23/120" or "*/0"
func parseContentRange(header string) (int, bool) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0, false
	}
	total, err := strconv.Atoi(header[idx+1:])
	if err != nil {
		return 0, false
	}
	return total, true
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
