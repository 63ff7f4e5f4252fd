package app

import (
	"context"
	"sync"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// TokenStorageKey is the LocalStorage key holding the bearer token.
const TokenStorageKey = "authToken"

// AuthSession owns the client authentication state. It starts Loading and
// settles on Authenticated or Anonymous.
type AuthSession struct {
	identity domain.IdentityProvider
	storage  domain.LocalStorage
	log      *zap.Logger

	mu           sync.Mutex
	state        domain.Session
	listeners    map[int]func(domain.Session)
	nextListener int
}

// NewAuthSession creates a session in the Loading state.
func NewAuthSession(identity domain.IdentityProvider, storage domain.LocalStorage, log *zap.Logger) *AuthSession {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthSession{
		identity:  identity,
		storage:   storage,
		log:       log,
		state:     domain.Session{Loading: true},
		listeners: make(map[int]func(domain.Session)),
	}
}

// Snapshot returns the current session.
func (a *AuthSession) Snapshot() domain.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copySession(a.state)
}

// Subscribe registers fn to be called with the new session after every
// transition. The returned function removes the subscription.
func (a *AuthSession) Subscribe(fn func(domain.Session)) func() {
	a.mu.Lock()
	id := a.nextListener
	a.nextListener++
	a.listeners[id] = fn
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// Restore validates a persisted token. It never fails: any problem leaves
// the session Anonymous.
func (a *AuthSession) Restore(ctx context.Context) {
	token, ok, err := a.storage.Get(ctx, TokenStorageKey)
	if err != nil {
		a.log.Warn("read saved token", zap.Error(err))
		a.set(domain.Session{})
		return
	}
	if !ok || token == "" {
		a.set(domain.Session{})
		return
	}

	user, err := a.identity.CurrentUser(ctx)
	if err != nil {
		a.log.Info("saved session not restored", zap.Error(err))
		a.set(domain.Session{})
		return
	}
	a.log.Info("session restored", zap.String("user_id", user.ID))
	a.set(domain.Session{User: user, Token: token})
}

// Login authenticates with email and password. Any current session ends
// when Login starts. On failure the session is Anonymous with Error set, the
// saved token is removed, and the error is returned.
func (a *AuthSession) Login(ctx context.Context, email, password string) error {
	a.begin()

	token, err := a.identity.Login(ctx, email, password)
	if err != nil {
		return a.fail(ctx, err, "Login failed")
	}
	if err := a.storage.Set(ctx, TokenStorageKey, token); err != nil {
		return a.fail(ctx, &domain.LocalStorageError{Op: "login", Msg: "could not save session", Err: err}, "Login failed")
	}

	user, err := a.identity.CurrentUser(ctx)
	if err != nil {
		return a.fail(ctx, err, "Login failed")
	}

	a.log.Info("logged in", zap.String("user_id", user.ID))
	a.set(domain.Session{User: user, Token: token})
	return nil
}

// Register creates an account and then logs in with the same credentials.
func (a *AuthSession) Register(ctx context.Context, email, password, fullName string) error {
	a.begin()

	if err := a.identity.Register(ctx, email, password, fullName); err != nil {
		return a.fail(ctx, err, "Registration failed")
	}
	return a.Login(ctx, email, password)
}

// Logout forgets the token and returns to Anonymous. No remote call is made.
func (a *AuthSession) Logout(ctx context.Context) {
	if err := a.storage.Remove(ctx, TokenStorageKey); err != nil {
		a.log.Warn("remove token", zap.Error(err))
	}
	a.set(domain.Session{})
}

// ClearError clears Error and nothing else.
func (a *AuthSession) ClearError() {
	a.update(func(s *domain.Session) {
		s.Error = ""
	})
}

// begin enters Loading. User and Token are dropped so listeners see the
// previous session end before a new one starts.
func (a *AuthSession) begin() {
	a.set(domain.Session{Loading: true})
}

// fail leaves the session Anonymous. The saved token goes too, so a later
// Restore cannot bring back a session that has ended.
func (a *AuthSession) fail(ctx context.Context, err error, fallback string) error {
	msg := domain.Message(err)
	if msg == "" {
		msg = fallback
	}
	a.log.Info("authentication failed", zap.Error(err))
	if rmErr := a.storage.Remove(ctx, TokenStorageKey); rmErr != nil {
		a.log.Warn("remove token", zap.Error(rmErr))
	}
	a.set(domain.Session{Error: msg})
	return err
}

func (a *AuthSession) set(next domain.Session) {
	a.update(func(s *domain.Session) {
		*s = next
	})
}

func (a *AuthSession) update(fn func(*domain.Session)) {
	a.mu.Lock()
	fn(&a.state)
	a.state.IsAuthenticated = a.state.User != nil && a.state.Token != ""
	state := copySession(a.state)
	listeners := make([]func(domain.Session), 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
}

func copySession(s domain.Session) domain.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
