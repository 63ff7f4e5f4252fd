package adapthttp

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleProductList(w http.ResponseWriter, r *http.Request) {
	skip := IntQuery(r, "skip", 0)
	limit := IntQuery(r, "limit", 100)
	products, err := s.catalog.List(r.Context(), skip, limit)
	if err != nil {
		s.log.Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, products)
}

func (s *Server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), chi.URLParam(r, "productID"))
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.log.Error("get product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	WriteJSON(w, http.StatusOK, p)
}
