package app

import (
	"context"
	"strings"

	"storefront/internal/domain"
)

// CartService encapsulates the backend's per-user cart use cases.
type CartService struct {
	carts    domain.CartRepository
	products domain.ProductRepository
}

// NewCartService creates a CartService backed by the given repositories.
func NewCartService(carts domain.CartRepository, products domain.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the user's cart lines.
func (s *CartService) Get(ctx context.Context, userID string) ([]domain.RemoteLine, error) {
	return s.carts.Lines(ctx, userID)
}

// AddItem adds qty of a known product, merging into an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, qty int) ([]domain.RemoteLine, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" || qty <= 0 {
		return nil, &domain.ValidationError{Op: "add item", Msg: "product_id is required and quantity must be positive"}
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.ValidationError{Op: "add item", Msg: "unknown product"}
	}
	if err := s.carts.AddQuantity(ctx, userID, productID, qty); err != nil {
		return nil, err
	}
	return s.carts.Lines(ctx, userID)
}

// UpdateItem sets the quantity of an existing line.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, qty int) ([]domain.RemoteLine, error) {
	if qty <= 0 {
		return nil, &domain.ValidationError{Op: "update item", Msg: "quantity must be positive"}
	}
	ok, err := s.carts.SetQuantity(ctx, userID, itemID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.carts.Lines(ctx, userID)
}

// RemoveItem deletes a line. Removing a missing line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.carts.DeleteLine(ctx, userID, itemID)
}
