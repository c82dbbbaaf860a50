package catalog

import (
	"fmt"
	"strings"

	"go-catalog-cache/internal/models"
)

// Resources of the catalog data store
const (
	ResourceProducts   = "products"
	ResourceCategories = "categories"
	ResourcePlatforms  = "platforms"
	ResourceBanners    = "banners"
)

// sort clauses per listing order, before the id tie-breaker
var sortOrders = map[models.SortMode][]models.Order{
	models.SortNewest:    {{Field: "created_at", Desc: true}},
	models.SortOldest:    {{Field: "created_at"}},
	models.SortPriceAsc:  {{Field: "base_price"}},
	models.SortPriceDesc: {{Field: "base_price", Desc: true}},
	models.SortPopular:   {{Field: "sales_count", Desc: true}},
	models.SortTitle:     {{Field: "title"}},
}

var tieBreaker = models.Order{Field: "id"}

// QueryBuilder translates listing options into backend queries
type QueryBuilder struct{}

// NewQueryBuilder creates a new QueryBuilder instance
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// ProductList builds the query of one page of active products
func (qb *QueryBuilder) ProductList(opts models.QueryOptions) (models.BackendQuery, error) {
	opts = opts.Normalized()
	if err := opts.Validate(); err != nil {
		return models.BackendQuery{}, err
	}

	filters := []models.Filter{activeOnly()}
	if opts.Category != "" {
		filters = append(filters, models.Filter{Field: "category_slug", Op: models.OpEq, Value: opts.Category})
	}
	if opts.ProductType != "" {
		filters = append(filters, models.Filter{Field: "product_type", Op: models.OpEq, Value: string(opts.ProductType)})
	}
	if opts.Search != "" {
		filters = append(filters, models.Filter{Field: "title", Op: models.OpILike, Value: opts.Search})
	}

	flags := []struct {
		field string
		value *bool
	}{
		{"is_featured", opts.Featured},
		{"is_bestseller", opts.Bestseller},
		{"is_new", opts.New},
	}
	for _, f := range flags {
		if f.value != nil {
			filters = append(filters, models.Filter{Field: f.field, Op: models.OpEq, Value: *f.value})
		}
	}

	order, ok := sortOrders[opts.Sort]
	if !ok {
		return models.BackendQuery{}, fmt.Errorf("%w: unknown sort mode %q", models.ErrInvalidOptions, opts.Sort)
	}

	return models.BackendQuery{
		Resource: ResourceProducts,
		Filters:  filters,
		Order:    append(append([]models.Order{}, order...), tieBreaker),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
		Count:    true,
	}, nil
}

// ProductDetail builds the query of a single active product
func (qb *QueryBuilder) ProductDetail(slug string) (models.BackendQuery, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return models.BackendQuery{}, fmt.Errorf("%w: empty product slug", models.ErrInvalidOptions)
	}
	return models.BackendQuery{
		Resource: ResourceProducts,
		Filters: []models.Filter{
			activeOnly(),
			{Field: "slug", Op: models.OpEq, Value: slug},
		},
		Limit: 1,
	}, nil
}

// Categories builds the query of every active category
func (qb *QueryBuilder) Categories() models.BackendQuery {
	return sortedActive(ResourceCategories)
}

// Platforms builds the query of every active platform
func (qb *QueryBuilder) Platforms() models.BackendQuery {
	return sortedActive(ResourcePlatforms)
}

// Banners builds the query of the active homepage banners
func (qb *QueryBuilder) Banners() models.BackendQuery {
	return sortedActive(ResourceBanners)
}

func activeOnly() models.Filter {
	return models.Filter{Field: "is_active", Op: models.OpEq, Value: true}
}

func sortedActive(resource string) models.BackendQuery {
	return models.BackendQuery{
		Resource: resource,
		Filters:  []models.Filter{activeOnly()},
		Order:    []models.Order{{Field: "sort_order"}, tieBreaker},
	}
}
