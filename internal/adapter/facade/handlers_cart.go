package facade

import (
	"net/http"
	"strings"

	adapthttp "storefront/internal/adapter/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	adapthttp.WriteJSON(w, http.StatusOK, s.cart.Snapshot())
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	adapthttp.WriteJSON(w, http.StatusOK, s.cart.ClearCart(r.Context()))
}

// handleCartAdd resolves the product through the catalog, then adds it.
// Only the lookup can fail; the cart change itself never does.
func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := adapthttp.ParseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.ProductID) == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	p, err := s.catalog.Product(r.Context(), body.ProductID)
	if err != nil {
		s.log.Info("product lookup failed", zap.String("product_id", body.ProductID), zap.Error(err))
		writeError(w, statusFor(err), errorMessage(err))
		return
	}
	adapthttp.WriteJSON(w, http.StatusOK, s.cart.AddToCart(r.Context(), *p, body.Quantity))
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := adapthttp.ParseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	adapthttp.WriteJSON(w, http.StatusOK, s.cart.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), body.Quantity))
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	adapthttp.WriteJSON(w, http.StatusOK, s.cart.RemoveFromCart(r.Context(), chi.URLParam(r, "productID")))
}

func (s *Server) handleCartSync(w http.ResponseWriter, r *http.Request) {
	adapthttp.WriteJSON(w, http.StatusAccepted, map[string]any{"scheduled": s.cart.RequestSync()})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.Products(r.Context(), adapthttp.IntQuery(r, "offset", 0), adapthttp.IntQuery(r, "limit", 20))
	if err != nil {
		writeError(w, statusFor(err), errorMessage(err))
		return
	}
	adapthttp.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Product(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, statusFor(err), errorMessage(err))
		return
	}
	adapthttp.WriteJSON(w, http.StatusOK, p)
}
