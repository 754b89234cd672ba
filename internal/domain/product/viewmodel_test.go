package product

import (
	"context"
	"testing"

	"github.com/example/ec-product-card/internal/bus"
	"github.com/example/ec-product-card/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type intentCall struct {
	action    string
	variantID int
}

type recordingIntents struct {
	calls []intentCall
}

func (r *recordingIntents) AddToCart(ctx context.Context, variantID int) {
	r.calls = append(r.calls, intentCall{"add", variantID})
}

func (r *recordingIntents) RemoveFromCart(ctx context.Context, variantID int) {
	r.calls = append(r.calls, intentCall{"remove", variantID})
}

func sampleProduct() catalog.Product {
	return catalog.Product{
		Brand:           "Vue Mastery",
		Name:            "Socks",
		Description:     "A pair of warm, fuzzy socks.",
		Price:           decimal.RequireFromString("19.99"),
		DiscountPercent: 25,
		Details:         []string{"80% cotton", "20% polyester", "Gender-neutral"},
		Variants: []catalog.Variant{
			{ID: 2234, Color: "green", Image: "green.jpg", Quantity: 10},
			{ID: 2235, Color: "blue", Image: "blue.jpg", Quantity: 0},
		},
		Sizes: []string{"S", "M", "L"},
	}
}

func newTestViewModel(p catalog.Product) (*ViewModel, *bus.Bus, *recordingIntents) {
	b := bus.New()
	intents := &recordingIntents{}
	return NewViewModel(p, b, intents, zap.NewNop()), b, intents
}

// ============================================
// Derived Value Tests
// ============================================

func TestViewModel_Title(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	assert.Equal(t, "Vue Mastery Socks", vm.Title())
}

func TestViewModel_ImageFollowsSelection(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	assert.Equal(t, "green.jpg", vm.Image())
	require.NoError(t, vm.SelectVariant(1))
	assert.Equal(t, "blue.jpg", vm.Image())
}

func TestViewModel_InStock(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	assert.True(t, vm.InStock())
	require.NoError(t, vm.SelectVariant(1))
	assert.False(t, vm.InStock())
}

func TestViewModel_PriceWithDiscount(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	assert.True(t, vm.PriceWithDiscount().Equal(decimal.RequireFromString("14.9925")), vm.PriceWithDiscount().String())
	assert.Equal(t, "14.99", vm.FormattedPrice())
	assert.True(t, vm.BasePrice().Equal(decimal.RequireFromString("19.99")))
}

func TestViewModel_PriceWithoutDiscount(t *testing.T) {
	p := sampleProduct()
	p.DiscountPercent = 0
	vm, _, _ := newTestViewModel(p)

	assert.True(t, vm.PriceWithDiscount().Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, "19.99", vm.FormattedPrice())
	assert.False(t, vm.OnSale())
	assert.Equal(t, "Vue Mastery Socks is not on sale", vm.Sale())
}

func TestViewModel_PriceFullDiscount(t *testing.T) {
	p := sampleProduct()
	p.DiscountPercent = 100
	vm, _, _ := newTestViewModel(p)

	assert.True(t, vm.PriceWithDiscount().IsZero())
	assert.Equal(t, "0.00", vm.FormattedPrice())
}

func TestViewModel_Sale(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	assert.True(t, vm.OnSale())
	assert.Equal(t, "Vue Mastery Socks is on sale!", vm.Sale())
}

func TestViewModel_AverageRating_NoReviews(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	assert.Equal(t, 0.0, vm.AverageRating())
	assert.Equal(t, "0.0", vm.FormattedRating())
	assert.Equal(t, 0, vm.ReviewCount())
}

func TestViewModel_AverageRating(t *testing.T) {
	p := sampleProduct()
	p.Reviews = []catalog.Review{{Rating: 5}, {Rating: 3}, {Rating: 4}}
	vm, _, _ := newTestViewModel(p)

	assert.Equal(t, 4.0, vm.AverageRating())
	assert.Equal(t, "4.0", vm.FormattedRating())
}

func TestViewModel_AverageRating_KeepsPrecision(t *testing.T) {
	p := sampleProduct()
	p.Reviews = []catalog.Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	vm, _, _ := newTestViewModel(p)

	assert.InDelta(t, 4.3333, vm.AverageRating(), 0.0001)
	assert.Equal(t, "4.3", vm.FormattedRating())
}

func TestViewModel_Shipping(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	assert.Equal(t, "Free", vm.Shipping(true))
	assert.Equal(t, FallbackShipping, vm.Shipping(false))
}

func TestViewModel_DisplayDataIsCopied(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	sizes := vm.Sizes()
	sizes[0] = "XS"
	variants := vm.Variants()
	variants[0].Quantity = 0

	assert.Equal(t, "S", vm.Sizes()[0])
	assert.True(t, vm.InStock())
	assert.Len(t, vm.Details(), 3)
}

func TestViewModel_ProductIsCopied(t *testing.T) {
	vm, _, _ := newTestViewModel(sampleProduct())

	p := vm.Product()
	p.Variants[0].Quantity = 0
	p.Sizes[0] = "XS"
	p.Details[0] = "100% wool"

	assert.True(t, vm.InStock())
	assert.Equal(t, "S", vm.Sizes()[0])
	assert.Equal(t, "80% cotton", vm.Details()[0])
	assert.Equal(t, 10, vm.Product().Variants[0].Quantity)
}

// ============================================
// SelectVariant Tests
// ============================================

func TestViewModel_SelectVariant_OutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		index int
	}{
		{"negative", -1},
		{"past end", 2},
		{"far past end", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, _, _ := newTestViewModel(sampleProduct())
			require.NoError(t, vm.SelectVariant(1))

			err := vm.SelectVariant(tt.index)

			assert.ErrorIs(t, err, ErrVariantOutOfRange)
			assert.Equal(t, 1, vm.SelectedIndex())
		})
	}
}

// ============================================
// Intent Tests
// ============================================

func TestViewModel_AddToCartEmitsSelectedVariant(t *testing.T) {
	vm, _, intents := newTestViewModel(sampleProduct())
	ctx := context.Background()

	vm.AddToCart(ctx)
	require.NoError(t, vm.SelectVariant(1))
	vm.AddToCart(ctx)
	vm.RemoveFromCart(ctx)

	assert.Equal(t, []intentCall{
		{"add", 2234},
		{"add", 2235},
		{"remove", 2235},
	}, intents.calls)
}

// ============================================
// Review Subscription Tests
// ============================================

func TestViewModel_AppendsPublishedReviews(t *testing.T) {
	vm, b, _ := newTestViewModel(sampleProduct())
	ctx := context.Background()

	b.Publish(ctx, bus.TopicReviewSubmitted, catalog.Review{Name: "A", Body: "Good", Rating: 5, Recommend: "yes"})
	b.Publish(ctx, bus.TopicReviewSubmitted, &catalog.Review{Name: "B", Body: "Fine", Rating: 3, Recommend: "no"})

	require.Equal(t, 2, vm.ReviewCount())
	assert.Equal(t, "A", vm.Reviews()[0].Name)
	assert.Equal(t, "B", vm.Reviews()[1].Name)
	assert.Equal(t, 4.0, vm.AverageRating())
}

func TestViewModel_DuplicateReviewsAreKept(t *testing.T) {
	vm, b, _ := newTestViewModel(sampleProduct())
	review := catalog.Review{Name: "A", Body: "Good", Rating: 5, Recommend: "yes"}

	b.Publish(context.Background(), bus.TopicReviewSubmitted, review)
	b.Publish(context.Background(), bus.TopicReviewSubmitted, review)

	assert.Equal(t, 2, vm.ReviewCount())
}

func TestViewModel_IgnoresForeignPayloads(t *testing.T) {
	vm, b, _ := newTestViewModel(sampleProduct())

	b.Publish(context.Background(), bus.TopicReviewSubmitted, "not a review")

	assert.Equal(t, 0, vm.ReviewCount())
}

func TestViewModel_CloseUnsubscribes(t *testing.T) {
	vm, b, _ := newTestViewModel(sampleProduct())

	vm.Close()
	b.Publish(context.Background(), bus.TopicReviewSubmitted, catalog.Review{Name: "A", Rating: 5})

	assert.Equal(t, 0, vm.ReviewCount())
	assert.Equal(t, 0, b.Subscribers(bus.TopicReviewSubmitted))
}
