package domain

import "context"

// Product is a catalog entry. The cart treats it as read-only.
type Product struct {
	ID             string   `json:"id" yaml:"id"`
	Slug           string   `json:"slug" yaml:"slug"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description,omitempty" yaml:"description"`
	Price          float64  `json:"price" yaml:"price"`
	CompareAtPrice *float64 `json:"compareAtPrice,omitempty" yaml:"compareAtPrice"`
	Category       string   `json:"category,omitempty" yaml:"category"`
	ImageURL       string   `json:"imageUrl,omitempty" yaml:"imageUrl"`
	Rating         float64  `json:"rating,omitempty" yaml:"rating"`
	Reviews        int      `json:"reviews,omitempty" yaml:"reviews"`
}

// CartLine is one entry of the local cart, keyed by product id.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartState is the local cart. Total and ItemCount are derived from Lines.
type CartState struct {
	Lines     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}

// RemoteLine is a line held by the remote cart service.
type RemoteLine struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartRepository is the backend port for per-user cart persistence.
// The product id doubles as the line id.
type CartRepository interface {
	Lines(ctx context.Context, userID string) ([]RemoteLine, error)
	AddQuantity(ctx context.Context, userID, productID string, qty int) error
	SetQuantity(ctx context.Context, userID, productID string, qty int) (bool, error)
	DeleteLine(ctx context.Context, userID, productID string) error
}

// ProductRepository is the backend port for the product catalog.
type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]Product, error)
	UpsertProduct(ctx context.Context, p Product) error
}
