package models

import "time"

// ProductType selects which variant collection prices a product
type ProductType string

const (
	ProductTypeGame         ProductType = "game"
	ProductTypeSubscription ProductType = "subscription"
	ProductTypeGiftCard     ProductType = "giftcard"
	ProductTypeSoftware     ProductType = "software"
)

// Valid reports whether t is a known product type
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeGame, ProductTypeSubscription, ProductTypeGiftCard, ProductTypeSoftware:
		return true
	}
	return false
}

// Product is a catalog row with its nested variant collections
type Product struct {
	ID              string      `json:"id"`
	Slug            string      `json:"slug"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	ProductType     ProductType `json:"product_type"`
	CategorySlug    string      `json:"category_slug,omitempty"`
	PlatformSlug    string      `json:"platform_slug,omitempty"`
	ImageURL        string      `json:"image_url,omitempty"`
	BasePrice       float64     `json:"base_price"`
	DiscountPercent float64     `json:"discount_percent"`
	IsActive        bool        `json:"is_active"`
	IsFeatured      bool        `json:"is_featured"`
	IsBestseller    bool        `json:"is_bestseller"`
	IsNew           bool        `json:"is_new"`
	CreatedAt       time.Time   `json:"created_at"`

	Editions          []GameEdition          `json:"game_editions,omitempty"`
	SubscriptionPlans []SubscriptionPlan     `json:"subscription_plans,omitempty"`
	Denominations     []GiftCardDenomination `json:"giftcard_denominations,omitempty"`
	LicenseTypes      []LicenseType          `json:"software_license_types,omitempty"`
}

// GameEdition is a purchasable edition of a game
type GameEdition struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	IsDefault bool    `json:"is_default"`
}

// SubscriptionPlan groups the durations a subscription can be bought for
type SubscriptionPlan struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Durations []SubscriptionDuration `json:"durations,omitempty"`
}

// SubscriptionDuration is a plan term. Price is optional in the data store.
type SubscriptionDuration struct {
	ID              string   `json:"id"`
	Months          int      `json:"months"`
	Price           *float64 `json:"price,omitempty"`
	DiscountPercent float64  `json:"discount_percent"`
}

// GiftCardDenomination carries the face value and the price the customer pays
type GiftCardDenomination struct {
	ID       string  `json:"id"`
	Value    float64 `json:"value"`
	Currency string  `json:"currency,omitempty"`
	Price    float64 `json:"price"`
}

// LicenseType is a software license tier
type LicenseType struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	BasePrice float64           `json:"base_price"`
	Durations []LicenseDuration `json:"durations,omitempty"`
}

// LicenseDuration adjusts a license type's base price
type LicenseDuration struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	PriceMultiplier float64 `json:"price_multiplier"`
	DiscountPercent float64 `json:"discount_percent"`
}

// Category is a catalog section
type Category struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// Platform is a store or device platform a product is redeemed on
type Platform struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Banner is a homepage promotion slot
type Banner struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	LinkURL   string `json:"link_url,omitempty"`
	SortOrder int    `json:"sort_order"`
}

// ProductList is one page of a product listing
type ProductList struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}
