package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const orderColumns = "id, user_id, status, total_amount, currency, created_at"

// PlaceOrder inserts the order and its items and removes the ordered
// products from the user's cart in one transaction.
func (d *DB) PlaceOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO orders("+orderColumns+") VALUES($1, $2, $3, $4, $5, $6);",
		o.ID, o.UserID, o.Status, o.TotalAmount, o.Currency, o.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	productIDs := make([]string, 0, len(o.Items))
	for i, it := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items(order_id, position, product_id, title, quantity, unit_price, total_price)
			VALUES($1, $2, $3, $4, $5, $6, $7);`,
			o.ID, i, it.ProductID, it.Title, it.Quantity, it.UnitPrice, it.TotalPrice,
		); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		productIDs = append(productIDs, it.ProductID)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE user_id=$1 AND product_id = ANY($2);", o.UserID, pq.Array(productIDs),
	); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns a user's orders, newest first.
func (d *DB) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return d.queryOrders(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id;", userID)
}

// ListAllOrders returns every order, newest first.
func (d *DB) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return d.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id;")
}

// GetOrder returns one of a user's orders, or nil if there is none.
func (d *DB) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := d.sql.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id=$1 AND user_id=$2;", orderID, userID,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.Currency, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = d.orderItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DB) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Order, 0)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.Currency, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Items, err = d.orderItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *DB) orderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT product_id, title, quantity, unit_price, total_price FROM order_items WHERE order_id=$1 ORDER BY position;", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Title, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
