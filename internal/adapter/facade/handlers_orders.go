package facade

import (
	"errors"
	"net/http"

	adapthttp "storefront/internal/adapter/http"
	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	o, err := s.checkout.PlaceOrder(r.Context())
	if err != nil {
		writeError(w, statusFor(err), domain.Message(err))
		return
	}
	adapthttp.WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.checkout.Orders(r.Context())
	if err != nil {
		writeError(w, statusFor(err), domain.Message(err))
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	adapthttp.WriteJSON(w, http.StatusOK, orders)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.checkout.Order(r.Context(), chi.URLParam(r, "orderID"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, statusFor(err), domain.Message(err))
		return
	}
	adapthttp.WriteJSON(w, http.StatusOK, o)
}
