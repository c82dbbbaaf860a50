package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"go-catalog-cache/internal/cache"
	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/metrics"
	"go-catalog-cache/internal/models"
	"go-catalog-cache/internal/pricing"
)

// ErrNotFound is returned when the requested item does not exist or is inactive
var ErrNotFound = errors.New("not found")

// Service serves the storefront catalog through the read-through cache
type Service struct {
	cache   interfaces.ReadThroughCache
	backend interfaces.Backend
	keys    interfaces.KeyBuilder
	queries *QueryBuilder
	ttl     interfaces.TTLPolicy
	logger  *zap.Logger
}

// NewService creates a new catalog service
func NewService(
	readThrough interfaces.ReadThroughCache,
	backend interfaces.Backend,
	keys interfaces.KeyBuilder,
	ttl interfaces.TTLPolicy,
	logger *zap.Logger,
) *Service {
	return &Service{
		cache:   readThrough,
		backend: backend,
		keys:    keys,
		queries: NewQueryBuilder(),
		ttl:     ttl,
		logger:  logger,
	}
}

// ListProducts returns one page of products matching opts
func (s *Service) ListProducts(ctx context.Context, opts models.QueryOptions) (*models.ProductList, models.CacheStatus, error) {
	key, err := s.keys.BuildList(ResourceProducts, opts)
	if err != nil {
		return nil, "", err
	}
	query, err := s.queries.ProductList(opts)
	if err != nil {
		return nil, "", err
	}

	value, status, err := s.fetch(ctx, models.EntityClassProductList, key, func(ctx context.Context) (interface{}, error) {
		result, err := s.backend.ExecuteQuery(ctx, key, query)
		if err != nil {
			return nil, err
		}
		items, err := decodeRows[models.Product](result.Rows)
		if err != nil {
			return nil, err
		}
		return &models.ProductList{Items: items, Total: result.TotalCount}, nil
	})
	if err != nil {
		return nil, status, err
	}
	return value.(*models.ProductList), status, nil
}

// GetProduct returns the active product with the given slug.
// A missing product is cached like any other result.
func (s *Service) GetProduct(ctx context.Context, slug string) (*models.Product, models.CacheStatus, error) {
	query, err := s.queries.ProductDetail(slug)
	if err != nil {
		return nil, "", err
	}
	key, err := s.keys.BuildDetail(ResourceProducts, slug)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrInvalidOptions, err)
	}

	value, status, err := s.fetch(ctx, models.EntityClassProductDetail, key, func(ctx context.Context) (interface{}, error) {
		result, err := s.backend.ExecuteQuery(ctx, key, query)
		if err != nil {
			return nil, err
		}
		products, err := decodeRows[models.Product](result.Rows)
		if err != nil {
			return nil, err
		}
		if len(products) == 0 {
			return (*models.Product)(nil), nil
		}
		return &products[0], nil
	})
	if err != nil {
		return nil, status, err
	}

	product, _ := value.(*models.Product)
	if product == nil {
		return nil, status, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}
	return product, status, nil
}

// ListCategories returns every active category
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, models.CacheStatus, error) {
	return listSingleton[models.Category](ctx, s, models.EntityClassCategoryList, cache.CategoriesKey, s.queries.Categories())
}

// ListPlatforms returns every active platform
func (s *Service) ListPlatforms(ctx context.Context) ([]models.Platform, models.CacheStatus, error) {
	return listSingleton[models.Platform](ctx, s, models.EntityClassPlatformList, cache.PlatformsKey, s.queries.Platforms())
}

// ListBanners returns the active homepage banners
func (s *Service) ListBanners(ctx context.Context) ([]models.Banner, models.CacheStatus, error) {
	return listSingleton[models.Banner](ctx, s, models.EntityClassBanners, cache.BannersKey, s.queries.Banners())
}

// QuotePrice prices the selected variant of a product
func (s *Service) QuotePrice(ctx context.Context, slug string, req pricing.SelectionRequest) (pricing.Quote, models.CacheStatus, error) {
	product, status, err := s.GetProduct(ctx, slug)
	if err != nil {
		return pricing.Quote{}, status, err
	}

	sel, err := req.For(product.ProductType)
	if err != nil {
		return pricing.Quote{}, status, err
	}

	quote, err := pricing.Resolve(product, sel)
	if err != nil {
		return pricing.Quote{}, status, err
	}
	return quote, status, nil
}

// fetch reads key through the cache with the TTL window of class
func (s *Service) fetch(ctx context.Context, class models.EntityClass, key string, fetch interfaces.FetchFunc) (interface{}, models.CacheStatus, error) {
	metrics.RecordCacheRequest(string(class))

	value, status, err := s.cache.Fetch(ctx, key, s.ttl.Resolve(class), fetch)
	switch status {
	case models.CacheStatusHit:
		metrics.RecordCacheHit(string(class), "fresh")
	case models.CacheStatusStale:
		metrics.RecordCacheHit(string(class), "stale")
	case models.CacheStatusMiss:
		metrics.RecordCacheMiss(string(class))
	}

	if err != nil {
		s.logger.Warn("Catalog fetch failed",
			zap.String("class", string(class)),
			zap.String("key", key),
			zap.Error(err))
		return nil, status, err
	}
	return value, status, nil
}

func listSingleton[T any](ctx context.Context, s *Service, class models.EntityClass, key string, query models.BackendQuery) ([]T, models.CacheStatus, error) {
	value, status, err := s.fetch(ctx, class, key, func(ctx context.Context) (interface{}, error) {
		result, err := s.backend.ExecuteQuery(ctx, key, query)
		if err != nil {
			return nil, err
		}
		return decodeRows[T](result.Rows)
	})
	if err != nil {
		return nil, status, err
	}
	return value.([]T), status, nil
}

func decodeRows[T any](rows []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(rows))
	for i, row := range rows {
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
