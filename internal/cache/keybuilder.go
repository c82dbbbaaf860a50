package cache

import (
	"crypto/md5"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go-catalog-cache/internal/interfaces"
	"go-catalog-cache/internal/models"
)

// Keys of singleton resources. They ignore listing options.
const (
	CategoriesKey = "categories:all"
	PlatformsKey  = "platforms:all"
	BannersKey    = "banners:home"
)

// Ensure KeyBuilderImpl implements interfaces.KeyBuilder
var _ interfaces.KeyBuilder = (*KeyBuilderImpl)(nil)

// KeyBuilderImpl implements the KeyBuilder interface
type KeyBuilderImpl struct{}

// NewKeyBuilder creates a new KeyBuilder instance
func NewKeyBuilder() interfaces.KeyBuilder {
	return &KeyBuilderImpl{}
}

// BuildList creates the cache key of a filtered listing.
// Structurally equal options always produce the same key.
func (kb *KeyBuilderImpl) BuildList(resource string, opts models.QueryOptions) (string, error) {
	if resource == "" {
		return "", errors.New("resource cannot be empty")
	}

	opts = opts.Normalized()
	if err := opts.Validate(); err != nil {
		return "", err
	}

	canonical := canonicalize(opts)
	if canonical == "" {
		return fmt.Sprintf("%s:list:all", resource), nil
	}

	// Create MD5 hash of the canonical form
	hasher := md5.New()
	hasher.Write([]byte(canonical))

	return fmt.Sprintf("%s:list:%x", resource, hasher.Sum(nil)), nil
}

// BuildDetail creates the cache key of a single item
func (kb *KeyBuilderImpl) BuildDetail(resource, id string) (string, error) {
	if resource == "" {
		return "", errors.New("resource cannot be empty")
	}

	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return "", errors.New("id cannot be empty")
	}

	return fmt.Sprintf("%s:detail:%s", resource, id), nil
}

// canonicalize serializes the non-default fields of normalized options. Values are
// query-escaped and keys sorted, so distinct options never share a form.
func canonicalize(opts models.QueryOptions) string {
	values := url.Values{}
	add := func(name, value string) {
		values.Set(name, value)
	}

	if opts.Category != "" {
		add("category", opts.Category)
	}
	if opts.ProductType != "" {
		add("type", string(opts.ProductType))
	}
	if opts.Search != "" {
		add("q", opts.Search)
	}
	if opts.Featured != nil {
		add("featured", strconv.FormatBool(*opts.Featured))
	}
	if opts.Bestseller != nil {
		add("bestseller", strconv.FormatBool(*opts.Bestseller))
	}
	if opts.New != nil {
		add("new", strconv.FormatBool(*opts.New))
	}
	if opts.Sort != models.SortNewest {
		add("sort", string(opts.Sort))
	}
	if opts.Limit != models.DefaultPageLimit {
		add("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset != 0 {
		add("offset", strconv.Itoa(opts.Offset))
	}

	return values.Encode()
}
