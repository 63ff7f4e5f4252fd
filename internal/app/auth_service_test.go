package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	createFn     func(ctx context.Context, email, fullName, passwordHash string) (*domain.User, error)
	setStaffFn   func(ctx context.Context, id string, staff bool) error
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, email, fullName, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, email, fullName, passwordHash)
	}
	return &domain.User{ID: "u1", Email: email, FullName: fullName, IsActive: true, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) SetStaff(ctx context.Context, id string, staff bool) error {
	if m.setStaffFn != nil {
		return m.setStaffFn(ctx, id, staff)
	}
	return nil
}

type mockTokenRepo struct {
	createFn        func(ctx context.Context, userID, token string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.AccessToken, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockTokenRepo) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, expiresAt)
	}
	return nil
}

func (m *mockTokenRepo) GetByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockTokenRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	password := "testpass123"
	hash := hashed(t, password)

	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			if email != "test@example.com" {
				t.Errorf("expected normalised email, got %q", email)
			}
			return &domain.User{ID: "u1", Email: email, IsActive: true, PasswordHash: hash}, nil
		},
	}

	var expires time.Time
	tokens := &mockTokenRepo{
		createFn: func(ctx context.Context, userID, token string, expiresAt time.Time) error {
			if userID != "u1" {
				t.Errorf("expected userID u1, got %s", userID)
			}
			if token == "" {
				t.Error("token should not be empty")
			}
			expires = expiresAt
			return nil
		},
	}

	svc := NewAuthService(users, tokens, time.Hour, nil)
	token, err := svc.Login(ctx, "  Test@Example.com ", password)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Error("expected token, got empty string")
	}
	if d := time.Until(expires); d < 59*time.Minute || d > time.Hour {
		t.Errorf("expected expiry about an hour out, got %v", d)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	hash := hashed(t, "correctpass")

	tests := []struct {
		name  string
		user  *domain.User
		err   error
		input string
	}{
		{"wrong password", &domain.User{ID: "u1", IsActive: true, PasswordHash: hash}, nil, "wrongpass"},
		{"unknown user", nil, nil, "correctpass"},
		{"inactive user", &domain.User{ID: "u1", IsActive: false, PasswordHash: hash}, nil, "correctpass"},
		{"repo error", nil, errors.New("db down"), "correctpass"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := &mockUserRepo{
				getByEmailFn: func(context.Context, string) (*domain.User, error) { return tc.user, tc.err },
			}
			svc := NewAuthService(users, &mockTokenRepo{}, 0, nil)

			_, err := svc.Login(context.Background(), "a@example.com", tc.input)
			if err != ErrInvalidCredentials {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_ValidateToken_Valid(t *testing.T) {
	tokens := &mockTokenRepo{
		getByTokenFn: func(ctx context.Context, token string) (*domain.AccessToken, error) {
			return &domain.AccessToken{Token: token, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return &domain.User{ID: id, Email: "a@example.com", IsActive: true}, nil
		},
	}

	svc := NewAuthService(users, tokens, 0, nil)
	user, err := svc.ValidateToken(context.Background(), "valid-token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("expected user u1, got %s", user.ID)
	}
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	deleted := false
	tokens := &mockTokenRepo{
		getByTokenFn: func(ctx context.Context, token string) (*domain.AccessToken, error) {
			return &domain.AccessToken{Token: token, UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour)}, nil
		},
		deleteFn: func(ctx context.Context, token string) error {
			deleted = true
			return nil
		},
	}

	svc := NewAuthService(&mockUserRepo{}, tokens, 0, nil)
	_, err := svc.ValidateToken(context.Background(), "expired-token")
	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	if !deleted {
		t.Error("expected expired token to be deleted")
	}
}

func TestAuthService_ValidateToken_Unknown(t *testing.T) {
	svc := NewAuthService(&mockUserRepo{}, &mockTokenRepo{}, 0, nil)
	if _, err := svc.ValidateToken(context.Background(), "nope"); err != ErrTokenNotFound {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestAuthService_ValidateToken_UserGone(t *testing.T) {
	tokens := &mockTokenRepo{
		getByTokenFn: func(ctx context.Context, token string) (*domain.AccessToken, error) {
			return &domain.AccessToken{Token: token, UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, tokens, 0, nil)
	if _, err := svc.ValidateToken(context.Background(), "orphan"); err != ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	var stored string
	users := &mockUserRepo{
		createFn: func(ctx context.Context, email, fullName, passwordHash string) (*domain.User, error) {
			stored = passwordHash
			return &domain.User{ID: "u9", Email: email, FullName: fullName, IsActive: true}, nil
		},
	}

	svc := NewAuthService(users, &mockTokenRepo{}, 0, nil)
	user, err := svc.Register(context.Background(), "New@Example.com", "password123", " New User ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.Email != "new@example.com" || user.FullName != "New User" {
		t.Errorf("unexpected user %+v", user)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte("password123")) != nil {
		t.Error("password was not hashed with bcrypt")
	}
}

func TestAuthService_Register_Rejected(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			if email == "taken@example.com" {
				return &domain.User{ID: "u1", Email: email}, nil
			}
			return nil, nil
		},
		createFn: func(context.Context, string, string, string) (*domain.User, error) {
			t.Error("Create should not be called")
			return nil, nil
		},
	}
	svc := NewAuthService(users, &mockTokenRepo{}, 0, nil)

	tests := []struct {
		name, email, password string
		validation            bool
	}{
		{"bad email", "not-an-email", "password123", true},
		{"empty email", "", "password123", true},
		{"short password", "ok@example.com", "short", true},
		{"taken", "taken@example.com", "password123", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.email, tc.password, "")
			var ve *domain.ValidationError
			if tc.validation {
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrEmailTaken) {
				t.Errorf("expected ErrEmailTaken, got %v", err)
			}
		})
	}
}

func TestAuthService_PurgeExpired(t *testing.T) {
	called := false
	tokens := &mockTokenRepo{
		deleteExpiredFn: func(ctx context.Context) error {
			called = true
			return nil
		},
	}
	svc := NewAuthService(&mockUserRepo{}, tokens, 0, nil)
	if err := svc.PurgeExpired(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("expected DeleteExpired to be called")
	}
}

func TestAuthService_GrantStaff(t *testing.T) {
	var promoted []string
	users := &mockUserRepo{
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			switch email {
			case "ops@example.com":
				return &domain.User{ID: "u-ops", Email: email, IsActive: true}, nil
			case "boss@example.com":
				return &domain.User{ID: "u-boss", Email: email, IsActive: true, IsStaff: true}, nil
			}
			return nil, nil
		},
		setStaffFn: func(ctx context.Context, id string, staff bool) error {
			if !staff {
				t.Errorf("SetStaff(%s, false)", id)
			}
			promoted = append(promoted, id)
			return nil
		},
	}
	svc := NewAuthService(users, &mockTokenRepo{}, 0, nil)

	if err := svc.GrantStaff(context.Background(), []string{" Ops@Example.com ", "boss@example.com", "new@example.com", ""}); err != nil {
		t.Fatalf("GrantStaff: %v", err)
	}
	if len(promoted) != 1 || promoted[0] != "u-ops" {
		t.Fatalf("promoted %v, want [u-ops]", promoted)
	}

	// Registration with a listed email grants staff immediately.
	u, err := svc.Register(context.Background(), "new@example.com", "long-enough", "New")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !u.IsStaff || len(promoted) != 2 {
		t.Fatalf("expected new account to be staff, got %+v (promoted %v)", u, promoted)
	}
}
