// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents a storefront customer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the client-side authentication state.
// IsAuthenticated holds exactly when both User and Token are present.
type Session struct {
	User            *User  `json:"user"`
	Token           string `json:"-"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	Loading         bool   `json:"loading"`
	Error           string `json:"error,omitempty"`
}

// AccessToken is a bearer token issued by the backend.
type AccessToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, email, fullName, passwordHash string) (*User, error)
	SetStaff(ctx context.Context, id string, staff bool) error
}

// TokenRepository defines the port for access token persistence operations.
type TokenRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*AccessToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
