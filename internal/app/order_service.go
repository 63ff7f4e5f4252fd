package app

import (
	"context"
	"math"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

const orderCurrency = "USD"

// OrderService turns carts into orders on the backend.
type OrderService struct {
	carts    domain.CartRepository
	products domain.ProductRepository
	orders   domain.OrderRepository
	log      *zap.Logger
}

// NewOrderService creates an OrderService backed by the given repositories.
func NewOrderService(carts domain.CartRepository, products domain.ProductRepository, orders domain.OrderRepository, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{carts: carts, products: products, orders: orders, log: log}
}

// Checkout places an order for everything in the user's cart at current
// catalog prices and empties those lines from the cart.
func (s *OrderService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	lines, err := s.carts.Lines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, &domain.ValidationError{Op: "checkout", Msg: "Cart is empty or invalid"}
	}

	o := domain.Order{UserID: userID, Status: domain.OrderPending, Currency: orderCurrency}
	for _, l := range lines {
		p, err := s.products.GetProduct(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.ValidationError{Op: "checkout", Msg: "Cart is empty or invalid"}
		}
		total := roundCents(p.Price * float64(l.Quantity))
		o.Items = append(o.Items, domain.OrderItem{
			ProductID:  p.ID,
			Title:      p.Title,
			Quantity:   l.Quantity,
			UnitPrice:  p.Price,
			TotalPrice: total,
		})
		o.TotalAmount += total
	}
	o.TotalAmount = roundCents(o.TotalAmount)

	placed, err := s.orders.PlaceOrder(ctx, o)
	if err != nil {
		return nil, err
	}
	s.log.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("user_id", userID),
		zap.Float64("total", placed.TotalAmount),
	)
	return placed, nil
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, userID)
}

// Get returns one of the user's orders, or domain.ErrNotFound.
func (s *OrderService) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ListAll returns every order in the system, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAllOrders(ctx)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
