package adapthttp

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleAdminProductCreate(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := ParseJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.catalog.Create(r.Context(), p)
	if err != nil {
		s.productWriteError(w, err)
		return
	}
	s.log.Info("product created", zap.String("product_id", created.ID), zap.String("by", userFrom(r.Context()).ID))
	WriteJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAdminProductUpdate(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := ParseJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.catalog.Update(r.Context(), chi.URLParam(r, "productID"), p)
	if err != nil {
		s.productWriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdminOrderList(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.ListAll(r.Context())
	if err != nil {
		s.log.Error("list all orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, orders)
}

func (s *Server) productWriteError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	default:
		s.log.Error("write product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
