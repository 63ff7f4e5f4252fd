package postgres

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Lines returns the user's cart lines in insertion order.
func (d *DB) Lines(ctx context.Context, userID string) ([]domain.RemoteLine, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT product_id, quantity FROM cart_lines WHERE user_id=$1 ORDER BY created_at, product_id;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.RemoteLine, 0)
	for rows.Next() {
		var l domain.RemoteLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, err
		}
		l.ID = l.ProductID
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddQuantity increments a line, creating it if needed.
func (d *DB) AddQuantity(ctx context.Context, userID, productID string, qty int) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO cart_lines(user_id, product_id, quantity, created_at) VALUES($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity;`,
		userID, productID, qty, time.Now().UTC(),
	)
	return err
}

// SetQuantity sets a line's quantity. It reports false if the line is missing.
func (d *DB) SetQuantity(ctx context.Context, userID, productID string, qty int) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE cart_lines SET quantity=$3 WHERE user_id=$1 AND product_id=$2;", userID, productID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteLine removes a line if present.
func (d *DB) DeleteLine(ctx context.Context, userID, productID string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM cart_lines WHERE user_id=$1 AND product_id=$2;", userID, productID)
	return err
}
