// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrTokenNotFound indicates that the presented token does not exist.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenExpired indicates that the token has expired.
	ErrTokenExpired = errors.New("token expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates that an account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
)

const minPasswordLen = 8

// AuthService handles registration, login and token validation on the
// backend.
type AuthService struct {
	users  domain.UserRepository
	tokens domain.TokenRepository
	ttl    time.Duration
	log    *zap.Logger
	staff  map[string]bool
}

// NewAuthService creates a new authentication service. Tokens live for ttl.
func NewAuthService(users domain.UserRepository, tokens domain.TokenRepository, ttl time.Duration, log *zap.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		log:    log,
	}
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, &domain.ValidationError{Op: "register", Msg: "invalid email address"}
	}
	if len(password) < minPasswordLen {
		return nil, &domain.ValidationError{Op: "register", Msg: "password must be at least 8 characters"}
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, email, strings.TrimSpace(fullName), string(hash))
	if err != nil {
		return nil, err
	}
	if s.staff[email] {
		if err := s.users.SetStaff(ctx, user.ID, true); err != nil {
			return nil, err
		}
		user.IsStaff = true
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// GrantStaff gives staff access to the accounts with these emails. Existing
// accounts are updated now; the rest become staff when they register.
// Call it before serving requests.
func (s *AuthService) GrantStaff(ctx context.Context, emails []string) error {
	s.staff = make(map[string]bool, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		s.staff[e] = true

		user, err := s.users.GetByEmail(ctx, e)
		if err != nil {
			return err
		}
		if user == nil || user.IsStaff {
			continue
		}
		if err := s.users.SetStaff(ctx, user.ID, true); err != nil {
			return err
		}
		s.log.Info("staff access granted", zap.String("user_id", user.ID))
	}
	return nil
}

// Login authenticates a user and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || user == nil || !user.IsActive {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().Add(s.ttl)
	if err := s.tokens.Create(ctx, user.ID, token, expiresAt); err != nil {
		return "", err
	}

	return token, nil
}

// ValidateToken returns the user a token was issued to.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	at, err := s.tokens.GetByToken(ctx, token)
	if err != nil || at == nil {
		return nil, ErrTokenNotFound
	}

	if time.Now().After(at.ExpiresAt) {
		_ = s.tokens.Delete(ctx, token)
		return nil, ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, at.UserID)
	if err != nil || user == nil || !user.IsActive {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// PurgeExpired deletes expired tokens.
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	return s.tokens.DeleteExpired(ctx)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
