// Package page wires the cart, product view-model, review form and tab panel of one session
// together and runs their events one at a time.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/ec-product-card/internal/bus"
	"github.com/example/ec-product-card/internal/catalog"
	"github.com/example/ec-product-card/internal/domain/cart"
	"github.com/example/ec-product-card/internal/domain/product"
	"github.com/example/ec-product-card/internal/domain/review"
	"github.com/example/ec-product-card/internal/domain/tabs"
	"github.com/example/ec-product-card/internal/infrastructure/store"
	"go.uber.org/zap"
)

var ErrOutOfStock = errors.New("selected variant is out of stock")

type Options struct {
	SessionID string
	Product   catalog.Product
	Premium   bool
	// Journal is optional. When set, cart and review history is recorded and replayed from it.
	Journal store.EventStoreInterface
	Logger  *zap.Logger
}

// Page is the state of one product page session.
type Page struct {
	mu         sync.Mutex
	sessionID  string
	bus        *bus.Bus
	cart       *cart.Store
	product    *product.ViewModel
	form       *review.Form
	panel      *tabs.Panel
	journal    store.EventStoreInterface
	journalSub *bus.Subscription
	logger     *zap.Logger
}

// New builds a page, restoring cart and reviews from the journal when one is configured.
func New(ctx context.Context, opts Options) (*Page, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session_id", opts.SessionID))

	p := &Page{
		sessionID: opts.SessionID,
		bus:       bus.New(),
		panel:     tabs.NewPanel(),
		journal:   opts.Journal,
		logger:    logger.With(zap.String("component", "page")),
	}

	cartID := cart.GetCartID(opts.SessionID)
	c, err := cart.Load(ctx, cartID, opts.Premium, opts.Journal, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to restore cart: %w", err)
	}
	p.cart = c

	prod := opts.Product
	if opts.Journal != nil {
		restored, err := product.LoadReviews(ctx, opts.Journal, product.GetReviewsID(opts.SessionID))
		if err != nil {
			return nil, fmt.Errorf("failed to restore reviews: %w", err)
		}
		prod.Reviews = append(append([]catalog.Review(nil), prod.Reviews...), restored...)
		p.journalSub = p.bus.Subscribe(bus.TopicReviewSubmitted, p.journalReview)
	}

	p.product = product.NewViewModel(prod, p.bus, intentHandler{page: p}, logger)
	p.form = review.NewForm(p.bus)
	return p, nil
}

// intentHandler is the parent side of the view-model's cart intents.
type intentHandler struct {
	page *Page
}

func (h intentHandler) AddToCart(ctx context.Context, variantID int) {
	h.page.cart.AddToCart(ctx, variantID)
	h.page.logger.Debug("added to cart", zap.Int("variant_id", variantID), zap.Int("cart_size", h.page.cart.Len()))
}

func (h intentHandler) RemoveFromCart(ctx context.Context, variantID int) {
	h.page.cart.RemoveFromCart(ctx, variantID)
	h.page.logger.Debug("removed from cart", zap.Int("variant_id", variantID), zap.Int("cart_size", h.page.cart.Len()))
}

func (p *Page) journalReview(ctx context.Context, payload any) {
	r, ok := payload.(catalog.Review)
	if !ok {
		return
	}
	reviewsID := product.GetReviewsID(p.sessionID)
	_, err := p.journal.Append(ctx, reviewsID, product.AggregateType, product.EventReviewSubmitted, product.ReviewSubmitted{
		ReviewsID:   reviewsID,
		Review:      r,
		SubmittedAt: time.Now(),
	})
	if err != nil {
		p.logger.Warn("failed to journal review", zap.Error(err))
	}
}

func (p *Page) SessionID() string {
	return p.sessionID
}

func (p *Page) SelectVariant(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.product.SelectVariant(index)
}

// AddToCart adds the selected variant. It is refused while the variant is out of stock,
// the same way the page disables its button.
func (p *Page) AddToCart(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.product.InStock() {
		return ErrOutOfStock
	}
	p.product.AddToCart(ctx)
	return nil
}

func (p *Page) RemoveFromCart(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.product.RemoveFromCart(ctx)
}

func (p *Page) SelectTab(t tabs.Tab) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.panel.Select(t)
}

func (p *Page) UpdateReview(field review.Field, raw string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form.Update(field, raw)
}

// SubmitReview submits the form. A *review.ValidationError is returned when fields are missing.
func (p *Page) SubmitReview(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, err := p.form.Submit(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("review submitted", zap.Int("rating", r.Rating), zap.Int("review_count", p.product.ReviewCount()))
	return nil
}

// Close detaches the page's subscribers from its bus.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.product.Close()
	if p.journalSub != nil {
		p.journalSub.Unsubscribe()
	}
}
