package product

import (
	"context"
	"errors"
	"strconv"

	"github.com/example/ec-product-card/internal/bus"
	"github.com/example/ec-product-card/internal/catalog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FallbackShipping is charged to non-premium customers.
const FallbackShipping = "2.99"

var ErrVariantOutOfRange = errors.New("variant index out of range")

var hundred = decimal.NewFromInt(100)

// Intents receives cart changes the view-model asks for but does not own.
type Intents interface {
	AddToCart(ctx context.Context, variantID int)
	RemoveFromCart(ctx context.Context, variantID int)
}

// ViewModel owns the product data, the selected variant and the review list.
// Derived values are recomputed on every call.
type ViewModel struct {
	product  catalog.Product
	selected int
	reviews  []catalog.Review
	intents  Intents
	sub      *bus.Subscription
	logger   *zap.Logger
}

// NewViewModel subscribes to review submissions on b for the lifetime of the view-model.
func NewViewModel(p catalog.Product, b *bus.Bus, intents Intents, logger *zap.Logger) *ViewModel {
	vm := &ViewModel{
		product: p,
		reviews: append([]catalog.Review(nil), p.Reviews...),
		intents: intents,
		logger:  logger.With(zap.String("component", "product")),
	}
	vm.product.Reviews = nil
	vm.sub = b.Subscribe(bus.TopicReviewSubmitted, vm.onReviewSubmitted)
	return vm
}

func (vm *ViewModel) onReviewSubmitted(_ context.Context, payload any) {
	switch r := payload.(type) {
	case catalog.Review:
		vm.reviews = append(vm.reviews, r)
	case *catalog.Review:
		vm.reviews = append(vm.reviews, *r)
	default:
		vm.logger.Warn("ignoring unexpected review payload", zap.Any("payload", payload))
	}
}

// Close stops listening for review submissions
func (vm *ViewModel) Close() {
	vm.sub.Unsubscribe()
}

// SelectVariant changes the selected variant. Out-of-range indexes are rejected and leave the selection as is.
func (vm *ViewModel) SelectVariant(index int) error {
	if index < 0 || index >= len(vm.product.Variants) {
		return ErrVariantOutOfRange
	}
	vm.selected = index
	return nil
}

// AddToCart asks the owner of the cart to add the selected variant
func (vm *ViewModel) AddToCart(ctx context.Context) {
	vm.intents.AddToCart(ctx, vm.SelectedVariant().ID)
}

// RemoveFromCart asks the owner of the cart to remove the selected variant
func (vm *ViewModel) RemoveFromCart(ctx context.Context) {
	vm.intents.RemoveFromCart(ctx, vm.SelectedVariant().ID)
}

func (vm *ViewModel) SelectedIndex() int {
	return vm.selected
}

func (vm *ViewModel) SelectedVariant() catalog.Variant {
	return vm.product.Variants[vm.selected]
}

func (vm *ViewModel) Title() string {
	return vm.product.Brand + " " + vm.product.Name
}

func (vm *ViewModel) Image() string {
	return vm.SelectedVariant().Image
}

func (vm *ViewModel) InStock() bool {
	return vm.SelectedVariant().Quantity > 0
}

func (vm *ViewModel) OnSale() bool {
	return vm.product.DiscountPercent > 0
}

func (vm *ViewModel) Sale() string {
	if vm.OnSale() {
		return vm.Title() + " is on sale!"
	}
	return vm.Title() + " is not on sale"
}

// PriceWithDiscount applies the discount percentage to the base price at full precision.
func (vm *ViewModel) PriceWithDiscount() decimal.Decimal {
	if vm.product.DiscountPercent <= 0 {
		return vm.product.Price
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(vm.product.DiscountPercent))).Div(hundred)
	return vm.product.Price.Mul(factor)
}

func (vm *ViewModel) FormattedPrice() string {
	return vm.PriceWithDiscount().StringFixed(2)
}

func (vm *ViewModel) BasePrice() decimal.Decimal {
	return vm.product.Price
}

// AverageRating is the mean rating, or 0 without reviews.
func (vm *ViewModel) AverageRating() float64 {
	if len(vm.reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range vm.reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(vm.reviews))
}

func (vm *ViewModel) FormattedRating() string {
	return strconv.FormatFloat(vm.AverageRating(), 'f', 1, 64)
}

func (vm *ViewModel) Shipping(premium bool) string {
	if premium {
		return "Free"
	}
	return FallbackShipping
}

func (vm *ViewModel) Reviews() []catalog.Review {
	return append([]catalog.Review(nil), vm.reviews...)
}

func (vm *ViewModel) ReviewCount() int {
	return len(vm.reviews)
}

// Product returns a copy of the product; its slices are not shared with the view-model.
func (vm *ViewModel) Product() catalog.Product {
	p := vm.product
	p.Variants = vm.Variants()
	p.Sizes = vm.Sizes()
	p.Details = vm.Details()
	p.Reviews = append([]catalog.Review(nil), vm.product.Reviews...)
	return p
}

func (vm *ViewModel) Variants() []catalog.Variant {
	return append([]catalog.Variant(nil), vm.product.Variants...)
}

func (vm *ViewModel) Sizes() []string {
	return append([]string(nil), vm.product.Sizes...)
}

func (vm *ViewModel) Details() []string {
	return append([]string(nil), vm.product.Details...)
}
