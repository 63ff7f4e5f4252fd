package domain

import (
	"context"
	"time"
)

// Order statuses.
const (
	OrderPending = "pending"
)

// OrderItem is one product line of an order, priced when the order was placed.
type OrderItem struct {
	ProductID  string  `json:"product_id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// Order is a placed checkout of a user's cart.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Currency    string      `json:"currency"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderRepository is the backend port for order persistence.
type OrderRepository interface {
	// PlaceOrder stores o with a new ID and removes the ordered products
	// from the user's cart in the same step.
	PlaceOrder(ctx context.Context, o Order) (*Order, error)
	// ListOrders returns a user's orders, newest first.
	ListOrders(ctx context.Context, userID string) ([]Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*Order, error)
	// ListAllOrders returns every order, newest first.
	ListAllOrders(ctx context.Context) ([]Order, error)
}
