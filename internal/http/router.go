package http

import (
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/notify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Deps are the services the HTTP API is built on.
type Deps struct {
	Catalog    CatalogService
	Cart       CartService
	Wishlist   WishlistService
	Checkout   CheckoutService
	Admin      AdminService
	AdminLogin AdminAuthenticator
	Tokens     interface {
		TokenVerifier
		TokenIssuer
	}
	Broker   notify.Broker
	Shipping ShippingPolicy
	Health   map[string]HealthCheck

	Log            *zap.Logger
	RequestTimeout time.Duration
	MaxBodySize    int64
	GuestTokenTTL  time.Duration
	// Heartbeat is the idle ping interval of the event stream.
	Heartbeat time.Duration
	// StreamsDone ends open event streams when closed.
	StreamsDone <-chan struct{}
}

// NewRouter wires every route of the storefront API.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	catalogHandler := NewCatalogHandler(d.Catalog, d.RequestTimeout)
	cartHandler := NewCartHandler(d.Cart, d.Catalog, d.Shipping, d.RequestTimeout)
	wishlistHandler := NewWishlistHandler(d.Wishlist, d.Catalog, cartHandler, d.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.RequestTimeout)
	adminHandler := NewAdminHandler(d.Admin, d.AdminLogin, d.RequestTimeout)
	sessionHandler := NewSessionHandler(d.Tokens, d.GuestTokenTTL)
	eventsHandler := NewEventsHandler(d.Broker, d.Heartbeat, d.StreamsDone)
	healthHandler := NewHealthHandler(d.Health, d.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MaxBodySize(d.MaxBodySize))

	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ResolveOwner(d.Tokens))

		// the event stream is long lived and must not inherit the request timeout
		r.With(RequireOwner).Get("/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(d.RequestTimeout))

			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{slug}", catalogHandler.GetProduct)
			r.Get("/categories", catalogHandler.ListCategories)
			r.Get("/brands", catalogHandler.ListBrands)

			r.Post("/session/guest", sessionHandler.CreateGuest)

			r.Group(func(r chi.Router) {
				r.Use(RequireOwner)

				r.Get("/cart", cartHandler.GetCart)
				r.Delete("/cart", cartHandler.ClearCart)
				r.Get("/cart/totals", cartHandler.GetTotals)
				r.Post("/cart/items", cartHandler.AddItem)
				r.Put("/cart/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/cart/items/{product_id}", cartHandler.RemoveItem)

				r.Get("/wishlist", wishlistHandler.GetWishlist)
				r.Delete("/wishlist", wishlistHandler.ClearWishlist)
				r.Post("/wishlist/items", wishlistHandler.AddItem)
				r.Delete("/wishlist/items/{product_id}", wishlistHandler.RemoveItem)
				r.Post("/wishlist/items/{product_id}/move-to-cart", wishlistHandler.MoveToCart)

			})

			r.Group(func(r chi.Router) {
				r.Use(RequireToken)

				r.Post("/checkout", checkoutHandler.Submit)
				r.Get("/orders", checkoutHandler.ListOrders)
				r.Get("/orders/{order_id}", checkoutHandler.GetOrder)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Post("/login", adminHandler.Login)

				r.Group(func(r chi.Router) {
					r.Use(RequireAdmin)

					r.Post("/products", adminHandler.CreateProduct)
					r.Get("/products/{id}", adminHandler.GetProduct)
					r.Put("/products/{id}", adminHandler.UpdateProduct)
					r.Delete("/products/{id}", adminHandler.DeleteProduct)
					r.Get("/orders", adminHandler.ListOrders)
					r.Get("/orders/{order_id}", adminHandler.GetOrder)
				})
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}
