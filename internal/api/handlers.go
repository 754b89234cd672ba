package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/example/ec-product-card/internal/api/middleware"
	"github.com/example/ec-product-card/internal/domain/review"
	"github.com/example/ec-product-card/internal/domain/tabs"
	"github.com/example/ec-product-card/internal/page"
	"github.com/example/ec-product-card/internal/session"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handlers struct {
	sessions *session.Registry
	logger   *zap.Logger
}

func NewHandlers(sessions *session.Registry, logger *zap.Logger) *Handlers {
	return &Handlers{
		sessions: sessions,
		logger:   logger.With(zap.String("component", "api")),
	}
}

// reviewFields are submitted together by the review form, in input order.
var reviewFields = []review.Field{
	review.FieldName,
	review.FieldBody,
	review.FieldRating,
	review.FieldRecommend,
}

// Page Handlers

func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, p)
}

func (h *Handlers) SelectVariant(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, "variant index must be a number", http.StatusBadRequest)
		return
	}
	if err := p.SelectVariant(index); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	redirectHome(w, r)
}

// Cart Handlers

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	if err := p.AddToCart(r.Context()); err != nil {
		if errors.Is(err, page.ErrOutOfStock) {
			respondError(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Error("add to cart failed", zap.Error(err))
		respondError(w, "failed to add to cart", http.StatusInternalServerError)
		return
	}
	redirectHome(w, r)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	p.RemoveFromCart(r.Context())
	redirectHome(w, r)
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	v := p.View()
	respondJSON(w, http.StatusOK, map[string]any{
		"items":   v.Cart,
		"count":   v.CartCount,
		"premium": v.Premium,
	})
}

// Tab Handlers

func (h *Handlers) SelectTab(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}

	t, err := tabs.ParseTab(chi.URLParam(r, "tab"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	p.SelectTab(t)
	redirectHome(w, r)
}

// Review Handlers

// UpdateReviewField writes a single input, for clients that sync fields as the user types.
func (h *Handlers) UpdateReviewField(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respondError(w, "invalid form body", http.StatusBadRequest)
		return
	}

	field := review.Field(chi.URLParam(r, "field"))
	if err := p.UpdateReview(field, r.PostForm.Get("value")); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitReview applies the posted fields and submits the form.
func (h *Handlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respondError(w, "invalid form body", http.StatusBadRequest)
		return
	}

	// Fields absent from the body keep what /reviews/fields/{field} stored.
	for _, field := range reviewFields {
		values, ok := r.PostForm[string(field)]
		if !ok || len(values) == 0 {
			continue
		}
		if err := p.UpdateReview(field, values[0]); err != nil {
			h.logger.Error("review field rejected", zap.String("field", string(field)), zap.Error(err))
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	err := p.SubmitReview(r.Context())
	var invalid *review.ValidationError
	switch {
	case errors.As(err, &invalid):
		h.render(w, http.StatusUnprocessableEntity, p)
	case err != nil:
		h.logger.Error("review submit failed", zap.Error(err))
		respondError(w, "failed to submit review", http.StatusInternalServerError)
	default:
		redirectHome(w, r)
	}
}

// JSON Handlers

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.page(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, p.View())
}

// Helper functions

// page resolves the caller's session page, writing a 500 when it cannot be built.
func (h *Handlers) page(w http.ResponseWriter, r *http.Request) (*page.Page, bool) {
	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == "" {
		respondError(w, "no session", http.StatusUnauthorized)
		return nil, false
	}

	p, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load session page", zap.String("session_id", sessionID), zap.Error(err))
		respondError(w, "failed to load page", http.StatusInternalServerError)
		return nil, false
	}
	return p, true
}

func (h *Handlers) render(w http.ResponseWriter, status int, p *page.Page) {
	if err := renderPage(w, status, p.View()); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}
