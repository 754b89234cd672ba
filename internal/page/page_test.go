package page

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/ec-product-card/internal/catalog"
	"github.com/example/ec-product-card/internal/domain/cart"
	"github.com/example/ec-product-card/internal/domain/product"
	"github.com/example/ec-product-card/internal/domain/review"
	"github.com/example/ec-product-card/internal/domain/tabs"
	"github.com/example/ec-product-card/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPage(t *testing.T) (*Page, *mocks.MockEventStore) {
	t.Helper()
	prod, err := catalog.Default()
	require.NoError(t, err)

	eventStore := mocks.NewMockEventStore()
	p, err := New(context.Background(), Options{
		SessionID: "session-1",
		Product:   prod,
		Premium:   true,
		Journal:   eventStore,
	})
	require.NoError(t, err)
	return p, eventStore
}

func submitValidReview(t *testing.T, p *Page) {
	t.Helper()
	require.NoError(t, p.UpdateReview(review.FieldName, "A"))
	require.NoError(t, p.UpdateReview(review.FieldBody, "Good"))
	require.NoError(t, p.UpdateReview(review.FieldRating, "5"))
	require.NoError(t, p.UpdateReview(review.FieldRecommend, "yes"))
	require.NoError(t, p.SubmitReview(context.Background()))
}

// ============================================
// Initial View Tests
// ============================================

func TestPage_InitialView(t *testing.T) {
	p, _ := newTestPage(t)

	v := p.View()

	assert.Equal(t, "Vue Mastery Socks", v.Title)
	assert.Equal(t, "Vue Mastery Socks is on sale!", v.Sale)
	assert.True(t, v.InStock)
	assert.Equal(t, "14.99", v.Price)
	assert.Equal(t, "19.99", v.BasePrice)
	assert.Equal(t, "Free", v.Shipping)
	assert.Equal(t, "0.0", v.AverageRating)
	assert.Equal(t, 0, v.CartCount)
	assert.Equal(t, tabs.Reviews, v.SelectedTab)
	require.Len(t, v.Variants, 2)
	assert.True(t, v.Variants[0].Selected)
	assert.False(t, v.Variants[1].Selected)
	require.Len(t, v.Tabs, 4)
	assert.True(t, v.Tabs[0].Selected)
	assert.Empty(t, v.Reviews)
	assert.NotNil(t, v.Reviews)
}

func TestPage_NonPremiumShipping(t *testing.T) {
	prod, err := catalog.Default()
	require.NoError(t, err)

	p, err := New(context.Background(), Options{SessionID: "s", Product: prod, Premium: false})
	require.NoError(t, err)

	assert.Equal(t, product.FallbackShipping, p.View().Shipping)
	assert.False(t, p.View().Premium)
}

// ============================================
// Cart Flow Tests
// ============================================

func TestPage_AddAndRemove(t *testing.T) {
	p, eventStore := newTestPage(t)
	ctx := context.Background()

	require.NoError(t, p.AddToCart(ctx))
	require.NoError(t, p.AddToCart(ctx))
	p.RemoveFromCart(ctx)

	v := p.View()
	assert.Equal(t, []int{2234}, v.Cart)
	assert.Equal(t, 1, v.CartCount)
	require.Len(t, eventStore.AppendCalls, 3)
	assert.Equal(t, cart.EventItemRemoved, eventStore.AppendCalls[2].EventType)
}

func TestPage_OutOfStockVariantCannotBeAdded(t *testing.T) {
	p, eventStore := newTestPage(t)

	require.NoError(t, p.SelectVariant(1))
	err := p.AddToCart(context.Background())

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.False(t, p.View().InStock)
	assert.Equal(t, 0, p.View().CartCount)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestPage_RemoveSelectedVariantNotInCart(t *testing.T) {
	p, _ := newTestPage(t)
	ctx := context.Background()
	require.NoError(t, p.AddToCart(ctx))

	require.NoError(t, p.SelectVariant(1))
	p.RemoveFromCart(ctx)

	assert.Equal(t, []int{2234}, p.View().Cart)
}

func TestPage_SelectVariantOutOfRange(t *testing.T) {
	p, _ := newTestPage(t)

	err := p.SelectVariant(5)

	assert.ErrorIs(t, err, product.ErrVariantOutOfRange)
	assert.True(t, p.View().Variants[0].Selected)
}

// ============================================
// Review Flow Tests
// ============================================

func TestPage_SubmitBlankReview(t *testing.T) {
	p, _ := newTestPage(t)

	err := p.SubmitReview(context.Background())

	var verr *review.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 4)
	assert.Len(t, p.View().Form.Errors, 4)
	assert.Equal(t, 0, p.View().ReviewCount)
}

func TestPage_SubmitValidReview(t *testing.T) {
	p, eventStore := newTestPage(t)

	submitValidReview(t, p)

	v := p.View()
	assert.Equal(t, 1, v.ReviewCount)
	assert.Equal(t, "5.0", v.AverageRating)
	assert.Equal(t, FormView{}, v.Form)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, product.EventReviewSubmitted, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, product.GetReviewsID("session-1"), eventStore.AppendCalls[0].AggregateID)
}

func TestPage_FormViewReflectsInput(t *testing.T) {
	p, _ := newTestPage(t)
	require.NoError(t, p.UpdateReview(review.FieldName, "A"))
	require.NoError(t, p.UpdateReview(review.FieldRating, "3"))

	v := p.View()

	assert.Equal(t, "A", v.Form.Name)
	assert.Equal(t, 3, v.Form.Rating)
	assert.Empty(t, v.Form.Recommend)
}

// ============================================
// Tab Tests
// ============================================

func TestPage_SwitchingTabsLeavesStateAlone(t *testing.T) {
	p, _ := newTestPage(t)
	ctx := context.Background()
	require.NoError(t, p.AddToCart(ctx))
	submitValidReview(t, p)
	require.NoError(t, p.SelectVariant(1))
	before := p.View()

	for _, tab := range tabs.All {
		p.SelectTab(tab)
		after := p.View()
		assert.Equal(t, tab, after.SelectedTab)
		assert.Equal(t, before.Cart, after.Cart)
		assert.Equal(t, before.Reviews, after.Reviews)
		assert.Equal(t, before.Variants, after.Variants)
	}
}

// ============================================
// Restore Tests
// ============================================

func TestPage_RestoresFromJournal(t *testing.T) {
	p, eventStore := newTestPage(t)
	ctx := context.Background()
	require.NoError(t, p.AddToCart(ctx))
	require.NoError(t, p.AddToCart(ctx))
	submitValidReview(t, p)

	prod, err := catalog.Default()
	require.NoError(t, err)
	restored, err := New(ctx, Options{SessionID: "session-1", Product: prod, Premium: true, Journal: eventStore})
	require.NoError(t, err)

	v := restored.View()
	assert.Equal(t, []int{2234, 2234}, v.Cart)
	assert.Equal(t, 1, v.ReviewCount)
	assert.Equal(t, "A", v.Reviews[0].Name)
}

func TestPage_RestoreFailure(t *testing.T) {
	prod, err := catalog.Default()
	require.NoError(t, err)
	eventStore := mocks.NewMockEventStore()
	eventStore.LoadErr = errors.New("down")

	_, err = New(context.Background(), Options{SessionID: "s", Product: prod, Journal: eventStore})

	assert.Error(t, err)
}

func TestPage_CloseDetachesSubscribers(t *testing.T) {
	p, eventStore := newTestPage(t)

	p.Close()
	p.bus.Publish(context.Background(), "review-submitted", catalog.Review{Name: "late", Rating: 1})

	assert.Equal(t, 0, p.View().ReviewCount)
	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Concurrency Tests
// ============================================

func TestPage_ConcurrentEventsAreSerialized(t *testing.T) {
	prod, err := catalog.Default()
	require.NoError(t, err)
	p, err := New(context.Background(), Options{SessionID: "s", Product: prod})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.AddToCart(context.Background())
			_ = p.View()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, p.View().CartCount)
}
