package app

import (
	"context"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// Checkout places orders for the signed-in user from the local cart.
type Checkout struct {
	session *AuthSession
	cart    *CartStore
	orders  domain.OrderClient
	log     *zap.Logger
}

// NewCheckout creates a Checkout.
func NewCheckout(session *AuthSession, cart *CartStore, orders domain.OrderClient, log *zap.Logger) *Checkout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checkout{session: session, cart: cart, orders: orders, log: log}
}

// PlaceOrder brings the remote cart up to date with the local one, orders
// it, and empties the local cart. On failure the local cart is unchanged.
func (c *Checkout) PlaceOrder(ctx context.Context) (*domain.Order, error) {
	if !c.session.Snapshot().IsAuthenticated {
		return nil, &domain.AuthError{Op: "checkout", Msg: "Sign in to check out"}
	}
	if len(c.cart.Snapshot().Lines) == 0 {
		return nil, &domain.ValidationError{Op: "checkout", Msg: "Your cart is empty"}
	}

	// Queued mirror calls and a fresh sync pass must land before the
	// backend reads the cart.
	c.cart.RequestSync()
	c.cart.Wait()

	order, err := c.orders.Checkout(ctx)
	if err != nil {
		c.log.Warn("checkout failed", zap.Error(err))
		return nil, err
	}
	c.cart.ClearCart(ctx)
	c.log.Info("order placed", zap.String("order_id", order.ID), zap.Int("items", len(order.Items)))
	return order, nil
}

// Orders lists the user's orders, newest first.
func (c *Checkout) Orders(ctx context.Context) ([]domain.Order, error) {
	return c.orders.Orders(ctx)
}

// Order returns one of the user's orders.
func (c *Checkout) Order(ctx context.Context, id string) (*domain.Order, error) {
	return c.orders.Order(ctx, id)
}
