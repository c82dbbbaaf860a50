package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidOptions is returned when caller supplied listing options cannot be served
var ErrInvalidOptions = errors.New("invalid query options")

// SortMode is one of the fixed listing orders
type SortMode string

const (
	SortDefault   SortMode = ""
	SortNewest    SortMode = "newest"
	SortOldest    SortMode = "oldest"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortPopular   SortMode = "popular"
	SortTitle     SortMode = "title"
)

// Valid reports whether s is a supported sort mode
func (s SortMode) Valid() bool {
	switch s {
	case SortDefault, SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortPopular, SortTitle:
		return true
	}
	return false
}

const (
	DefaultPageLimit = 24
	MaxPageLimit     = 100
)

// QueryOptions are the caller's listing filters, sort and pagination.
// Nil flag pointers mean "no filter".
type QueryOptions struct {
	Category    string
	ProductType ProductType
	Search      string
	Featured    *bool
	Bestseller  *bool
	New         *bool
	Sort        SortMode
	Limit       int
	Offset      int
}

// QueryOption mutates QueryOptions
type QueryOption func(*QueryOptions)

// NewQueryOptions applies opts in order to an empty QueryOptions
func NewQueryOptions(opts ...QueryOption) QueryOptions {
	var o QueryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithCategory(slug string) QueryOption {
	return func(o *QueryOptions) { o.Category = slug }
}

func WithProductType(t ProductType) QueryOption {
	return func(o *QueryOptions) { o.ProductType = t }
}

func WithSearch(q string) QueryOption {
	return func(o *QueryOptions) { o.Search = q }
}

func WithFeatured(v bool) QueryOption {
	return func(o *QueryOptions) { o.Featured = &v }
}

func WithBestseller(v bool) QueryOption {
	return func(o *QueryOptions) { o.Bestseller = &v }
}

func WithNew(v bool) QueryOption {
	return func(o *QueryOptions) { o.New = &v }
}

func WithSort(s SortMode) QueryOption {
	return func(o *QueryOptions) { o.Sort = s }
}

func WithPage(limit, offset int) QueryOption {
	return func(o *QueryOptions) {
		o.Limit = limit
		o.Offset = offset
	}
}

// Validate rejects options no backend query can be built for
func (o QueryOptions) Validate() error {
	if !o.Sort.Valid() {
		return fmt.Errorf("%w: unknown sort mode %q", ErrInvalidOptions, o.Sort)
	}
	if o.ProductType != "" && !o.ProductType.Valid() {
		return fmt.Errorf("%w: unknown product type %q", ErrInvalidOptions, o.ProductType)
	}
	if o.Limit < 0 || o.Offset < 0 {
		return fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidOptions)
	}
	return nil
}

// Normalized returns a copy with slugs lower-cased, search trimmed, the default sort
// spelled out and paging clamped
func (o QueryOptions) Normalized() QueryOptions {
	n := o
	n.Category = strings.ToLower(strings.TrimSpace(o.Category))
	n.ProductType = ProductType(strings.ToLower(strings.TrimSpace(string(o.ProductType))))
	n.Search = strings.Join(strings.Fields(o.Search), " ")
	n.Sort = SortMode(strings.ToLower(strings.TrimSpace(string(o.Sort))))
	if n.Sort == SortDefault {
		n.Sort = SortNewest
	}
	if n.Limit == 0 {
		n.Limit = DefaultPageLimit
	}
	if n.Limit > MaxPageLimit {
		n.Limit = MaxPageLimit
	}
	return n
}

// ParseQueryOptions reads listing options from URL query parameters
func ParseQueryOptions(values url.Values) (QueryOptions, error) {
	opts := QueryOptions{
		Category:    values.Get("category"),
		ProductType: ProductType(values.Get("type")),
		Search:      values.Get("q"),
		Sort:        SortMode(values.Get("sort")),
	}

	flags := []struct {
		name string
		dst  **bool
	}{
		{"featured", &opts.Featured},
		{"bestseller", &opts.Bestseller},
		{"new", &opts.New},
	}
	for _, f := range flags {
		raw := values.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return QueryOptions{}, fmt.Errorf("%w: %s must be a boolean", ErrInvalidOptions, f.name)
		}
		*f.dst = &v
	}

	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return QueryOptions{}, fmt.Errorf("%w: %s must be an integer", ErrInvalidOptions, name)
		}
		*dst = v
	}

	return opts, opts.Normalized().Validate()
}

// FilterOp is a backend predicate operator
type FilterOp string

const (
	OpEq    FilterOp = "eq"
	OpILike FilterOp = "ilike"
)

// Filter is one predicate of a backend query
type Filter struct {
	Field string
	Op    FilterOp
	Value interface{}
}

// Order is one sort clause of a backend query
type Order struct {
	Field string
	Desc  bool
}

// BackendQuery is the transport agnostic query sent to the data store
type BackendQuery struct {
	Resource string
	Filters  []Filter
	Order    []Order
	Limit    int
	Offset   int
	Count    bool
}

// QueryResult holds the rows returned by the data store as opaque JSON documents
type QueryResult struct {
	Rows       []json.RawMessage
	TotalCount int
}
