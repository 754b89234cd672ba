package api

import (
	"net/http"

	"github.com/example/ec-product-card/internal/api/middleware"
	"github.com/example/ec-product-card/internal/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handlers *Handlers
	Tokens   *auth.TokenService
	Logger   *zap.Logger
	// AssetsDir is served under /assets/ when set.
	AssetsDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Static files (images, styles)
	if cfg.AssetsDir != "" {
		fs := http.FileServer(http.Dir(cfg.AssetsDir))
		r.Handle("/assets/*", http.StripPrefix("/assets/", fs))
	}

	h := cfg.Handlers
	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Tokens, cfg.Logger))

		r.Get("/", h.GetPage)
		r.Post("/variants/{index}", h.SelectVariant)

		// Cart
		r.Post("/cart/items", h.AddToCart)
		r.Post("/cart/items/remove", h.RemoveFromCart)

		// Tabs
		r.Post("/tabs/{tab}", h.SelectTab)

		// Reviews
		r.Post("/reviews", h.SubmitReview)
		r.Post("/reviews/fields/{field}", h.UpdateReviewField)

		// JSON
		r.Get("/api/product", h.GetProduct)
		r.Get("/api/cart", h.GetCart)
	})

	return r
}
