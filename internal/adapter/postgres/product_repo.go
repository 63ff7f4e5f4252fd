package postgres

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/domain"
)

const productColumns = "id, slug, title, description, price, compare_at_price, category, image_url, rating, reviews"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p       domain.Product
		compare sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Price, &compare, &p.Category, &p.ImageURL, &p.Rating, &p.Reviews)
	if compare.Valid {
		v := compare.Float64
		p.CompareAtPrice = &v
	}
	return p, err
}

// GetProduct retrieves a product by ID.
func (d *DB) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(d.sql.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id=$1;", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts lists products ordered by title.
func (d *DB) ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY title, id OFFSET $1 LIMIT $2;", offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertProduct stores a product, replacing any existing row with the same ID.
func (d *DB) UpsertProduct(ctx context.Context, p domain.Product) error {
	var compare sql.NullFloat64
	if p.CompareAtPrice != nil {
		compare = sql.NullFloat64{Float64: *p.CompareAtPrice, Valid: true}
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO products(`+productColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET slug=EXCLUDED.slug, title=EXCLUDED.title, description=EXCLUDED.description,
		price=EXCLUDED.price, compare_at_price=EXCLUDED.compare_at_price, category=EXCLUDED.category,
		image_url=EXCLUDED.image_url, rating=EXCLUDED.rating, reviews=EXCLUDED.reviews;`,
		p.ID, p.Slug, p.Title, p.Description, p.Price, compare, p.Category, p.ImageURL, p.Rating, p.Reviews,
	)
	return err
}
