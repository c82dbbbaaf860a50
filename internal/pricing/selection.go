package pricing

import (
	"fmt"

	"go-catalog-cache/internal/models"
)

// Selection references the variant a customer picked. The concrete type must match the
// product type: GameSelection, SubscriptionSelection, GiftCardSelection or SoftwareSelection.
// Empty IDs select the default variant.
type Selection interface {
	productType() models.ProductType
}

type GameSelection struct {
	EditionID string `json:"edition_id,omitempty"`
}

type SubscriptionSelection struct {
	PlanID     string `json:"plan_id,omitempty"`
	DurationID string `json:"duration_id,omitempty"`
}

type GiftCardSelection struct {
	DenominationID string `json:"denomination_id,omitempty"`
}

type SoftwareSelection struct {
	LicenseTypeID string `json:"license_type_id,omitempty"`
	DurationID    string `json:"duration_id,omitempty"`
}

func (GameSelection) productType() models.ProductType         { return models.ProductTypeGame }
func (SubscriptionSelection) productType() models.ProductType { return models.ProductTypeSubscription }
func (GiftCardSelection) productType() models.ProductType     { return models.ProductTypeGiftCard }
func (SoftwareSelection) productType() models.ProductType     { return models.ProductTypeSoftware }

// DefaultSelection returns the empty selection for t, or nil when t has no variants
func DefaultSelection(t models.ProductType) Selection {
	switch t {
	case models.ProductTypeGame:
		return GameSelection{}
	case models.ProductTypeSubscription:
		return SubscriptionSelection{}
	case models.ProductTypeGiftCard:
		return GiftCardSelection{}
	case models.ProductTypeSoftware:
		return SoftwareSelection{}
	}
	return nil
}

// SelectionRequest is the wire form of a selection. Only the IDs relevant to the
// selected kind are read. An empty Kind means the product's own type.
type SelectionRequest struct {
	Kind           models.ProductType `json:"kind,omitempty"`
	EditionID      string             `json:"edition_id,omitempty"`
	PlanID         string             `json:"plan_id,omitempty"`
	DenominationID string             `json:"denomination_id,omitempty"`
	LicenseTypeID  string             `json:"license_type_id,omitempty"`
	DurationID     string             `json:"duration_id,omitempty"`
}

// For converts the request into a selection for a product of type t
func (r SelectionRequest) For(t models.ProductType) (Selection, error) {
	kind := r.Kind
	if kind == "" {
		kind = t
	}

	switch kind {
	case models.ProductTypeGame:
		return GameSelection{EditionID: r.EditionID}, nil
	case models.ProductTypeSubscription:
		return SubscriptionSelection{PlanID: r.PlanID, DurationID: r.DurationID}, nil
	case models.ProductTypeGiftCard:
		return GiftCardSelection{DenominationID: r.DenominationID}, nil
	case models.ProductTypeSoftware:
		return SoftwareSelection{LicenseTypeID: r.LicenseTypeID, DurationID: r.DurationID}, nil
	}
	if r.Kind == "" {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown selection kind %q", ErrSelectionMismatch, r.Kind)
}
