package app

import (
	"context"
	"testing"

	"storefront/internal/adapter/memory"
	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderService(t *testing.T) (*OrderService, *memory.DB) {
	t.Helper()
	db := memory.New()
	for _, p := range []domain.Product{mug, towel, lamp} {
		require.NoError(t, db.UpsertProduct(context.Background(), p))
	}
	return NewOrderService(db, db, db, nil), db
}

func TestOrderService_Checkout(t *testing.T) {
	svc, db := newOrderService(t)
	ctx := context.Background()
	require.NoError(t, db.AddQuantity(ctx, "u1", "mug", 3))
	require.NoError(t, db.AddQuantity(ctx, "u1", "towel", 1))

	o, err := svc.Checkout(ctx, "u1")
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, 45.5, o.TotalAmount)
	require.Len(t, o.Items, 2)
	assert.Equal(t, domain.OrderItem{ProductID: "mug", Title: "Mug", Quantity: 3, UnitPrice: 12.5, TotalPrice: 37.5}, o.Items[0])

	lines, err := db.Lines(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	got, err := svc.Get(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	list, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrderService_CheckoutRejectsEmptyOrUnknown(t *testing.T) {
	svc, db := newOrderService(t)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, "u1")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	require.NoError(t, db.AddQuantity(ctx, "u1", "discontinued", 1))
	_, err = svc.Checkout(ctx, "u1")
	assert.ErrorAs(t, err, &ve)

	lines, _ := db.Lines(ctx, "u1")
	assert.Len(t, lines, 1, "a rejected checkout leaves the cart alone")
}

func TestOrderService_OrdersArePrivate(t *testing.T) {
	svc, db := newOrderService(t)
	ctx := context.Background()
	require.NoError(t, db.AddQuantity(ctx, "u1", "lamp", 1))
	o, err := svc.Checkout(ctx, "u1")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", o.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
