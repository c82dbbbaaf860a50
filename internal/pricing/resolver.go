package pricing

import (
	"errors"
	"fmt"
	"math"

	"go-catalog-cache/internal/models"
)

var (
	// ErrSelectionMismatch is returned when the selection kind differs from the product type
	ErrSelectionMismatch = errors.New("selection does not match product type")
	// ErrDurationPriceUnresolved is returned for a subscription duration without a price.
	// No derivation from the duration discount is attempted.
	ErrDurationPriceUnresolved = errors.New("subscription duration has no price")
)

// floating point noise below this is ignored when flooring, so 0.29*100 floors to 29
const floorEpsilon = 1e-9

// Quote is the resolved unit price of one product variant
type Quote struct {
	ProductID       string  `json:"product_id"`
	Slug            string  `json:"slug"`
	VariantID       string  `json:"variant_id,omitempty"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent"`
	FinalPrice      int64   `json:"final_price"`
}

// Resolve computes the price of product p for the selected variant. A nil selection picks
// the default variant. Missing variant data falls back to the product base price.
func Resolve(p *models.Product, sel Selection) (Quote, error) {
	if sel == nil {
		sel = DefaultSelection(p.ProductType)
	}
	if sel != nil && sel.productType() != p.ProductType {
		return Quote{}, fmt.Errorf("%w: %s selection for %s product %q",
			ErrSelectionMismatch, sel.productType(), p.ProductType, p.Slug)
	}

	price, variantID := p.BasePrice, ""
	switch s := sel.(type) {
	case GameSelection:
		price, variantID = resolveGame(p, s)
	case SubscriptionSelection:
		var err error
		price, variantID, err = resolveSubscription(p, s)
		if err != nil {
			return Quote{}, fmt.Errorf("product %q: %w", p.Slug, err)
		}
	case GiftCardSelection:
		price, variantID = resolveGiftCard(p, s)
	case SoftwareSelection:
		price, variantID = resolveSoftware(p, s)
	}

	return Quote{
		ProductID:       p.ID,
		Slug:            p.Slug,
		VariantID:       variantID,
		UnitPrice:       price,
		DiscountPercent: p.DiscountPercent,
		FinalPrice:      ApplyDiscount(price, p.DiscountPercent),
	}, nil
}

// ApplyDiscount applies a percentage discount and floors to a whole currency unit
func ApplyDiscount(price, discountPercent float64) int64 {
	if discountPercent < 0 {
		discountPercent = 0
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	return int64(math.Floor(price*(1-discountPercent/100) + floorEpsilon))
}

func resolveGame(p *models.Product, s GameSelection) (float64, string) {
	if len(p.Editions) == 0 {
		return p.BasePrice, ""
	}
	if s.EditionID != "" {
		for _, e := range p.Editions {
			if e.ID == s.EditionID {
				return e.Price, e.ID
			}
		}
	}
	for _, e := range p.Editions {
		if e.IsDefault {
			return e.Price, e.ID
		}
	}
	return p.Editions[0].Price, p.Editions[0].ID
}

func resolveSubscription(p *models.Product, s SubscriptionSelection) (float64, string, error) {
	if len(p.SubscriptionPlans) == 0 {
		return p.BasePrice, "", nil
	}

	plan := p.SubscriptionPlans[0]
	for _, candidate := range p.SubscriptionPlans {
		if s.PlanID != "" && candidate.ID == s.PlanID {
			plan = candidate
			break
		}
	}
	if len(plan.Durations) == 0 {
		return p.BasePrice, "", nil
	}

	duration := plan.Durations[0]
	for _, candidate := range plan.Durations {
		if s.DurationID != "" && candidate.ID == s.DurationID {
			duration = candidate
			break
		}
	}
	if duration.Price == nil {
		return 0, "", fmt.Errorf("%w: plan %q duration %q", ErrDurationPriceUnresolved, plan.ID, duration.ID)
	}
	return *duration.Price, duration.ID, nil
}

func resolveGiftCard(p *models.Product, s GiftCardSelection) (float64, string) {
	if len(p.Denominations) == 0 {
		return p.BasePrice, ""
	}
	for _, d := range p.Denominations {
		if s.DenominationID != "" && d.ID == s.DenominationID {
			return d.Price, d.ID
		}
	}
	return p.Denominations[0].Price, p.Denominations[0].ID
}

func resolveSoftware(p *models.Product, s SoftwareSelection) (float64, string) {
	if len(p.LicenseTypes) == 0 {
		return p.BasePrice, ""
	}

	license := p.LicenseTypes[0]
	for _, candidate := range p.LicenseTypes {
		if s.LicenseTypeID != "" && candidate.ID == s.LicenseTypeID {
			license = candidate
			break
		}
	}
	if len(license.Durations) == 0 {
		return license.BasePrice, license.ID
	}

	duration := license.Durations[0]
	for _, candidate := range license.Durations {
		if s.DurationID != "" && candidate.ID == s.DurationID {
			duration = candidate
			break
		}
	}

	price := license.BasePrice
	if duration.PriceMultiplier > 0 {
		price *= duration.PriceMultiplier
	}
	price *= 1 - duration.DiscountPercent/100
	return price, duration.ID
}
