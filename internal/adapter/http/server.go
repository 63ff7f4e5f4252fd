package adapthttp

import (
	"net/http"

	"storefront/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the driving HTTP adapter for the development backend. It
// serves the auth, cart, product, order and admin API the storefront
// client talks to.
type Server struct {
	auth    *app.AuthService
	carts   *app.CartService
	catalog *app.CatalogService
	orders  *app.OrderService
	log     *zap.Logger
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, carts *app.CartService, catalog *app.CatalogService, orders *app.OrderService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, carts: carts, catalog: catalog, orders: orders, log: log}
}

// Handler returns the root http.Handler for the backend.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.log))
	r.Use(withNoCache)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(s.authMiddleware).Get("/me", s.handleMe)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/", s.handleCartGet)
			r.Post("/items", s.handleCartAdd)
			r.Put("/items/{itemID}", s.handleCartUpdate)
			r.Delete("/items/{itemID}", s.handleCartRemove)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleProductList)
			r.Get("/{productID}", s.handleProductGet)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/checkout", s.handleCheckout)
			r.Get("/", s.handleOrderList)
			r.Get("/{orderID}", s.handleOrderGet)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware, requireStaff)
			r.Post("/products", s.handleAdminProductCreate)
			r.Put("/products/{productID}", s.handleAdminProductUpdate)
			r.Get("/orders", s.handleAdminOrderList)
		})
	})

	return r
}
