package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-catalog-cache/internal/models"
)

func price(v float64) *float64 {
	return &v
}

func TestResolve_Game(t *testing.T) {
	product := &models.Product{
		ID:              "p1",
		Slug:            "elden-ring",
		ProductType:     models.ProductTypeGame,
		BasePrice:       90,
		DiscountPercent: 10,
		Editions: []models.GameEdition{
			{ID: "standard", Price: 100},
			{ID: "deluxe", Price: 150, IsDefault: true},
			{ID: "collector", Price: 300},
		},
	}

	tests := []struct {
		name        string
		sel         Selection
		wantVariant string
		wantFinal   int64
	}{
		{"default edition", nil, "deluxe", 135},
		{"empty selection", GameSelection{}, "deluxe", 135},
		{"selected edition", GameSelection{EditionID: "collector"}, "collector", 270},
		{"unknown edition falls back to default", GameSelection{EditionID: "gold"}, "deluxe", 135},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Resolve(product, tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.wantVariant, quote.VariantID)
			assert.Equal(t, tt.wantFinal, quote.FinalPrice)
		})
	}
}

func TestResolve_GameFirstEditionWithoutDefault(t *testing.T) {
	product := &models.Product{
		ProductType: models.ProductTypeGame,
		BasePrice:   10,
		Editions:    []models.GameEdition{{ID: "a", Price: 40}, {ID: "b", Price: 60}},
	}

	quote, err := Resolve(product, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", quote.VariantID)
	assert.Equal(t, int64(40), quote.FinalPrice)
}

func TestResolve_BasePriceWithoutVariants(t *testing.T) {
	for _, pt := range []models.ProductType{
		models.ProductTypeGame,
		models.ProductTypeSubscription,
		models.ProductTypeGiftCard,
		models.ProductTypeSoftware,
	} {
		t.Run(string(pt), func(t *testing.T) {
			quote, err := Resolve(&models.Product{ProductType: pt, BasePrice: 200}, nil)
			require.NoError(t, err)
			assert.Empty(t, quote.VariantID)
			assert.Equal(t, 200.0, quote.UnitPrice)
			assert.Equal(t, int64(200), quote.FinalPrice)
		})
	}
}

func TestResolve_Subscription(t *testing.T) {
	product := &models.Product{
		ProductType: models.ProductTypeSubscription,
		BasePrice:   5,
		SubscriptionPlans: []models.SubscriptionPlan{
			{
				ID: "essential",
				Durations: []models.SubscriptionDuration{
					{ID: "1m", Months: 1, Price: price(10)},
					{ID: "12m", Months: 12, Price: price(100), DiscountPercent: 17},
				},
			},
			{
				ID: "premium",
				Durations: []models.SubscriptionDuration{
					{ID: "1m", Months: 1, Price: price(20)},
					{ID: "3m", Months: 3},
				},
			},
			{ID: "trial"},
		},
	}

	quote, err := Resolve(product, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), quote.FinalPrice)

	// the duration discount is already reflected in its price
	quote, err = Resolve(product, SubscriptionSelection{PlanID: "essential", DurationID: "12m"})
	require.NoError(t, err)
	assert.Equal(t, "12m", quote.VariantID)
	assert.Equal(t, int64(100), quote.FinalPrice)

	quote, err = Resolve(product, SubscriptionSelection{PlanID: "premium"})
	require.NoError(t, err)
	assert.Equal(t, int64(20), quote.FinalPrice)

	quote, err = Resolve(product, SubscriptionSelection{PlanID: "trial"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), quote.FinalPrice)
}

func TestResolve_SubscriptionDurationWithoutPrice(t *testing.T) {
	product := &models.Product{
		Slug:        "game-pass",
		ProductType: models.ProductTypeSubscription,
		SubscriptionPlans: []models.SubscriptionPlan{
			{ID: "premium", Durations: []models.SubscriptionDuration{{ID: "3m", Months: 3, DiscountPercent: 10}}},
		},
	}

	_, err := Resolve(product, SubscriptionSelection{PlanID: "premium", DurationID: "3m"})
	assert.ErrorIs(t, err, ErrDurationPriceUnresolved)
}

func TestResolve_GiftCardUsesPriceNotFaceValue(t *testing.T) {
	product := &models.Product{
		ProductType:     models.ProductTypeGiftCard,
		BasePrice:       1,
		DiscountPercent: 5,
		Denominations: []models.GiftCardDenomination{
			{ID: "usd-20", Value: 20, Currency: "USD", Price: 1900},
			{ID: "usd-50", Value: 50, Currency: "USD", Price: 4700},
		},
	}

	quote, err := Resolve(product, GiftCardSelection{DenominationID: "usd-50"})
	require.NoError(t, err)
	assert.Equal(t, 4700.0, quote.UnitPrice)
	assert.Equal(t, int64(4465), quote.FinalPrice)

	quote, err = Resolve(product, nil)
	require.NoError(t, err)
	assert.Equal(t, "usd-20", quote.VariantID)
	assert.Equal(t, int64(1805), quote.FinalPrice)
}

func TestResolve_Software(t *testing.T) {
	product := &models.Product{
		ProductType: models.ProductTypeSoftware,
		BasePrice:   1,
		LicenseTypes: []models.LicenseType{
			{
				ID:        "personal",
				BasePrice: 1000,
				Durations: []models.LicenseDuration{
					{ID: "1y", PriceMultiplier: 1},
					{ID: "2y", PriceMultiplier: 1.5, DiscountPercent: 10},
					{ID: "unset", DiscountPercent: 20},
				},
			},
			{ID: "business", BasePrice: 5000},
		},
	}

	tests := []struct {
		name      string
		sel       Selection
		wantUnit  float64
		wantFinal int64
	}{
		{"first license and duration", nil, 1000, 1000},
		{"multiplier and duration discount", SoftwareSelection{LicenseTypeID: "personal", DurationID: "2y"}, 1350, 1350},
		{"zero multiplier ignored", SoftwareSelection{DurationID: "unset"}, 800, 800},
		{"license without durations", SoftwareSelection{LicenseTypeID: "business"}, 5000, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Resolve(product, tt.sel)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantUnit, quote.UnitPrice, 1e-6)
			assert.Equal(t, tt.wantFinal, quote.FinalPrice)
		})
	}
}

func TestResolve_SelectionMismatch(t *testing.T) {
	product := &models.Product{Slug: "steam-card", ProductType: models.ProductTypeGiftCard, BasePrice: 10}

	_, err := Resolve(product, GameSelection{EditionID: "deluxe"})
	assert.ErrorIs(t, err, ErrSelectionMismatch)
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		price    float64
		discount float64
		want     int64
	}{
		{150, 10, 135},
		{200, 0, 200},
		{99.99, 0, 99},
		{100, 71, 29},
		{100, 100, 0},
		{100, 150, 0},
		{100, -5, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ApplyDiscount(tt.price, tt.discount), "price %v discount %v", tt.price, tt.discount)
	}
}

func TestSelectionRequest_For(t *testing.T) {
	req := SelectionRequest{EditionID: "deluxe", PlanID: "premium", DurationID: "3m", DenominationID: "usd-20", LicenseTypeID: "personal"}

	tests := []struct {
		productType models.ProductType
		want        Selection
	}{
		{models.ProductTypeGame, GameSelection{EditionID: "deluxe"}},
		{models.ProductTypeSubscription, SubscriptionSelection{PlanID: "premium", DurationID: "3m"}},
		{models.ProductTypeGiftCard, GiftCardSelection{DenominationID: "usd-20"}},
		{models.ProductTypeSoftware, SoftwareSelection{LicenseTypeID: "personal", DurationID: "3m"}},
		{"bundle", nil},
	}

	for _, tt := range tests {
		sel, err := req.For(tt.productType)
		require.NoError(t, err)
		assert.Equal(t, tt.want, sel, string(tt.productType))
	}
}

func TestSelectionRequest_ExplicitKind(t *testing.T) {
	sel, err := SelectionRequest{Kind: models.ProductTypeGame, EditionID: "deluxe"}.For(models.ProductTypeGiftCard)
	require.NoError(t, err)

	// the explicit kind wins, so resolving against a gift card is a mismatch
	_, err = Resolve(&models.Product{ProductType: models.ProductTypeGiftCard}, sel)
	assert.ErrorIs(t, err, ErrSelectionMismatch)

	_, err = SelectionRequest{Kind: "bundle"}.For(models.ProductTypeGame)
	assert.ErrorIs(t, err, ErrSelectionMismatch)
}
