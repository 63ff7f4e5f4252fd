package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

const userColumns = "id, email, full_name, is_active, is_staff, password_hash, created_at"

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.IsStaff, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, email, fullName, passwordHash string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"INSERT INTO users (id, email, full_name, is_active, password_hash, created_at) VALUES ($1, $2, $3, TRUE, $4, $5) RETURNING "+userColumns,
		uuid.NewString(), email, fullName, passwordHash, time.Now().UTC(),
	))
	if err == nil && u == nil {
		return nil, sql.ErrNoRows
	}
	return u, err
}

// SetStaff grants or revokes staff access.
func (d *DB) SetStaff(ctx context.Context, id string, staff bool) error {
	res, err := d.sql.ExecContext(ctx, "UPDATE users SET is_staff=$2 WHERE id=$1;", id, staff)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TokenRepo implements access token persistence on DB.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo wraps a DB as a TokenRepository.
func NewTokenRepo(db *DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// Create stores a new token.
func (r *TokenRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO access_tokens (user_id, token, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		userID, token, expiresAt, time.Now(),
	)
	return err
}

// GetByToken retrieves a token record.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	var t domain.AccessToken
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT token, user_id, expires_at, created_at FROM access_tokens WHERE token = $1",
		token,
	).Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete deletes a token.
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM access_tokens WHERE token = $1", token)
	return err
}

// DeleteExpired deletes all expired tokens.
func (r *TokenRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM access_tokens WHERE expires_at < $1", time.Now())
	return err
}
