// Package facade serves the client runtime as a local JSON API. Views read
// session and cart state from it and send user actions to it.
package facade

import (
	"errors"
	"net/http"

	adapthttp "storefront/internal/adapter/http"
	"storefront/internal/app"
	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server routes local requests to the session, cart, catalog and
// checkout.
type Server struct {
	session  *app.AuthSession
	cart     *app.CartStore
	catalog  domain.Catalog
	checkout *app.Checkout
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

// New creates a Server. A nil gatherer serves the default registry at
// /metrics.
func New(session *app.AuthSession, cart *app.CartStore, catalog domain.Catalog, checkout *app.Checkout, gatherer prometheus.Gatherer, log *zap.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{session: session, cart: cart, catalog: catalog, checkout: checkout, gatherer: gatherer, log: log}
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(adapthttp.RequestLogger(s.log))

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			adapthttp.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		r.Get("/session", s.handleSession)
		r.Post("/session/login", s.handleLogin)
		r.Post("/session/register", s.handleRegister)
		r.Post("/session/logout", s.handleLogout)
		r.Delete("/session/error", s.handleClearError)

		r.Get("/cart", s.handleCart)
		r.Delete("/cart", s.handleCartClear)
		r.Post("/cart/items", s.handleCartAdd)
		r.Put("/cart/items/{productID}", s.handleCartUpdate)
		r.Delete("/cart/items/{productID}", s.handleCartRemove)
		r.Post("/cart/sync", s.handleCartSync)

		r.Get("/products", s.handleProducts)
		r.Get("/products/{productID}", s.handleProduct)

		r.Post("/checkout", s.handleCheckout)
		r.Get("/orders", s.handleOrders)
		r.Get("/orders/{orderID}", s.handleOrder)
	})
	return r
}

func writeError(w http.ResponseWriter, status int, msg string) {
	adapthttp.WriteJSON(w, status, map[string]any{"error": msg})
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	var (
		ae *domain.AuthError
		ve *domain.ValidationError
		ne *domain.NetworkError
	)
	switch {
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ne):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage is the text shown to the user for err.
func errorMessage(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "product not found"
	}
	return domain.Message(err)
}
