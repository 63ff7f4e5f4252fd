// Package memory implements in-memory repositories for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	tokens   map[string]*domain.AccessToken
	carts    map[string][]domain.RemoteLine
	products map[string]domain.Product
	orders   []domain.Order
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		tokens:   make(map[string]*domain.AccessToken),
		carts:    make(map[string][]domain.RemoteLine),
		products: make(map[string]domain.Product),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.CartRepository = (*DB)(nil)
var _ domain.ProductRepository = (*DB)(nil)
var _ domain.OrderRepository = (*DB)(nil)
var _ domain.TokenRepository = (*TokenRepo)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, fullName, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return nil, errors.New("user already exists")
		}
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		IsActive:     true,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	c := *u
	return &c, nil
}

// SetStaff grants or revokes staff access.
func (db *DB) SetStaff(ctx context.Context, id string, staff bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.IsStaff = staff
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- CartRepository ---

// Lines returns the user's cart lines in insertion order.
func (db *DB) Lines(ctx context.Context, userID string) ([]domain.RemoteLine, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lines := db.carts[userID]
	out := make([]domain.RemoteLine, len(lines))
	copy(out, lines)
	return out, nil
}

// AddQuantity increments a line, creating it if needed.
func (db *DB) AddQuantity(ctx context.Context, userID, productID string, qty int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	lines := db.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity += qty
			return nil
		}
	}
	db.carts[userID] = append(lines, domain.RemoteLine{ID: productID, ProductID: productID, Quantity: qty})
	return nil
}

// SetQuantity sets a line's quantity. It reports false if the line is missing.
func (db *DB) SetQuantity(ctx context.Context, userID, productID string, qty int) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lines := db.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = qty
			return true, nil
		}
	}
	return false, nil
}

// DeleteLine removes a line if present.
func (db *DB) DeleteLine(ctx context.Context, userID, productID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	lines := db.carts[userID]
	for i := range lines {
		if lines[i].ProductID == productID {
			db.carts[userID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- ProductRepository ---

// GetProduct retrieves a product by ID.
func (db *DB) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListProducts lists products ordered by title.
func (db *DB) ListProducts(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.Product, 0, len(db.products))
	for _, p := range db.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Title == result[j].Title {
			return result[i].ID < result[j].ID
		}
		return result[i].Title < result[j].Title
	})

	if offset >= len(result) {
		return []domain.Product{}, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpsertProduct stores a product.
func (db *DB) UpsertProduct(ctx context.Context, p domain.Product) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[p.ID] = p
	return nil
}

// --- OrderRepository ---

// PlaceOrder stores an order and drops its products from the user's cart.
func (db *DB) PlaceOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	o.ID = uuid.NewString()
	o.CreatedAt = time.Now().UTC()
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	db.orders = append(db.orders, o)

	ordered := make(map[string]bool, len(o.Items))
	for _, it := range o.Items {
		ordered[it.ProductID] = true
	}
	kept := db.carts[o.UserID][:0]
	for _, l := range db.carts[o.UserID] {
		if !ordered[l.ProductID] {
			kept = append(kept, l)
		}
	}
	db.carts[o.UserID] = kept

	c := copyOrder(o)
	return &c, nil
}

// ListOrders returns a user's orders, newest first.
func (db *DB) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Order, 0)
	for i := len(db.orders) - 1; i >= 0; i-- {
		if db.orders[i].UserID == userID {
			out = append(out, copyOrder(db.orders[i]))
		}
	}
	return out, nil
}

// GetOrder returns one of a user's orders, or nil if there is none.
func (db *DB) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, o := range db.orders {
		if o.ID == orderID && o.UserID == userID {
			c := copyOrder(o)
			return &c, nil
		}
	}
	return nil, nil
}

// ListAllOrders returns every order, newest first.
func (db *DB) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.Order, 0, len(db.orders))
	for i := len(db.orders) - 1; i >= 0; i-- {
		out = append(out, copyOrder(db.orders[i]))
	}
	return out, nil
}

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

// --- TokenRepository ---

// TokenRepo implements access token persistence.
type TokenRepo struct {
	db *DB
}

// NewTokenRepo creates a new token repository.
func (db *DB) NewTokenRepo() *TokenRepo {
	return &TokenRepo{db: db}
}

// Create stores a new token.
func (r *TokenRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.tokens[token] = &domain.AccessToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a token record.
func (r *TokenRepo) GetByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if t, ok := r.db.tokens[token]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

// Delete deletes a token.
func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tokens, token)
	return nil
}

// DeleteExpired deletes all expired tokens.
func (r *TokenRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.tokens {
		if now.After(v.ExpiresAt) {
			delete(r.db.tokens, k)
		}
	}
	return nil
}
