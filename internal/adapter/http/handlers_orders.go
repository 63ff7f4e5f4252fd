package adapthttp

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	o, err := s.orders.Checkout(r.Context(), user.ID)
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
		return
	case err != nil:
		s.log.Error("checkout", zap.String("user_id", user.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, http.StatusCreated, o)
}

func (s *Server) handleOrderList(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.log.Error("list orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, orders)
}

func (s *Server) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.Get(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "orderID"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		s.log.Error("get order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, o)
}
