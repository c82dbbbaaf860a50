package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// EntityClass identifies a family of catalog resources sharing one TTL window
type EntityClass string

const (
	EntityClassProductList   EntityClass = "product_list"
	EntityClassProductDetail EntityClass = "product_detail"
	EntityClassCategoryList  EntityClass = "category_list"
	EntityClassPlatformList  EntityClass = "platform_list"
	EntityClassBanners       EntityClass = "banners"
)

// AllEntityClasses lists every known entity class in a stable order
var AllEntityClasses = []EntityClass{
	EntityClassProductList,
	EntityClassProductDetail,
	EntityClassCategoryList,
	EntityClassPlatformList,
	EntityClassBanners,
}

// Valid reports whether c is one of the known entity classes
func (c EntityClass) Valid() bool {
	for _, known := range AllEntityClasses {
		if c == known {
			return true
		}
	}
	return false
}

// UnmarshalYAML implements custom YAML unmarshaling for EntityClass
func (c *EntityClass) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	class := EntityClass(str)
	if !class.Valid() {
		return fmt.Errorf("invalid entity class '%s': must be one of %v", str, AllEntityClasses)
	}
	*c = class
	return nil
}

// TTL is the freshness window of a cache entry. Both durations are measured from
// the moment of the last successful fetch.
type TTL struct {
	Fresh time.Duration `yaml:"fresh" json:"fresh"` // served without refresh while age <= Fresh
	Stale time.Duration `yaml:"stale" json:"stale"` // served with a background refresh while age <= Stale
}

// Validate checks that the fresh window ends before the stale one
func (t TTL) Validate() error {
	if t.Fresh < 0 {
		return fmt.Errorf("fresh ttl must not be negative, got %s", t.Fresh)
	}
	if t.Fresh >= t.Stale {
		return fmt.Errorf("fresh ttl (%s) must be shorter than stale ttl (%s)", t.Fresh, t.Stale)
	}
	return nil
}

// Freshness is the state of a cache entry relative to its TTL
type Freshness int

const (
	Fresh Freshness = iota
	Stale
	Expired
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "expired"
	}
}

// FreshnessAt classifies an entry of the given age
func (t TTL) FreshnessAt(age time.Duration) Freshness {
	switch {
	case age <= t.Fresh:
		return Fresh
	case age <= t.Stale:
		return Stale
	default:
		return Expired
	}
}

// CacheStatus tells the caller how a value was obtained
type CacheStatus string

const (
	CacheStatusHit   CacheStatus = "HIT"
	CacheStatusStale CacheStatus = "STALE"
	CacheStatusMiss  CacheStatus = "MISS"
)
