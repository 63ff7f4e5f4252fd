package adapthttp

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type cartResponse struct {
	ID    string              `json:"id"`
	Items []domain.RemoteLine `json:"items"`
}

func (s *Server) handleCartGet(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	lines, err := s.carts.Get(r.Context(), user.ID)
	if err != nil {
		s.cartError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{ID: user.ID, Items: lines})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := ParseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := userFrom(r.Context())
	lines, err := s.carts.AddItem(r.Context(), user.ID, body.ProductID, body.Quantity)
	if err != nil {
		s.cartError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{ID: user.ID, Items: lines})
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"product_id,omitempty"`
		Quantity  int    `json:"quantity"`
	}
	if err := ParseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := userFrom(r.Context())
	lines, err := s.carts.UpdateItem(r.Context(), user.ID, chi.URLParam(r, "itemID"), body.Quantity)
	if err != nil {
		s.cartError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cartResponse{ID: user.ID, Items: lines})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if err := s.carts.RemoveItem(r.Context(), user.ID, chi.URLParam(r, "itemID")); err != nil {
		s.cartError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cartError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Cart item not found")
	default:
		s.log.Error("cart", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
