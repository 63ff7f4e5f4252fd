package facade_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront/internal/adapter/facade"
	"storefront/internal/adapter/memory"
	"storefront/internal/adapter/metrics"
	"storefront/internal/app"
	"storefront/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Fakes (function-fields pattern)
// ---------------------------------------------------------------------------

type fakeIdentity struct {
	loginFn   func(ctx context.Context, email, password string) (string, error)
	currentFn func(ctx context.Context) (*domain.User, error)
}

func (f *fakeIdentity) Login(ctx context.Context, email, password string) (string, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, email, password)
	}
	return "tok", nil
}

func (f *fakeIdentity) CurrentUser(ctx context.Context) (*domain.User, error) {
	if f.currentFn != nil {
		return f.currentFn(ctx)
	}
	return &domain.User{ID: "u1", Email: "ivy@example.com"}, nil
}

func (f *fakeIdentity) Register(ctx context.Context, email, password, fullName string) error {
	return nil
}

type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeRemote) AddItem(ctx context.Context, productID string, qty int) error {
	return f.record("add " + productID)
}

func (f *fakeRemote) UpdateItem(ctx context.Context, lineID string, qty int) error {
	return f.record("update " + lineID)
}

func (f *fakeRemote) RemoveItem(ctx context.Context, lineID string) error {
	return f.record("remove " + lineID)
}

func (f *fakeRemote) Items(ctx context.Context) ([]domain.RemoteLine, error) {
	return nil, f.record("items")
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeCatalog map[string]domain.Product

func (c fakeCatalog) Product(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (c fakeCatalog) Products(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(c))
	for _, p := range c {
		out = append(out, p)
	}
	return out, nil
}

type fakeOrders struct {
	checkoutFn func(ctx context.Context) (*domain.Order, error)
	ordersFn   func(ctx context.Context) ([]domain.Order, error)
	orderFn    func(ctx context.Context, id string) (*domain.Order, error)
}

func (f *fakeOrders) Checkout(ctx context.Context) (*domain.Order, error) {
	if f.checkoutFn != nil {
		return f.checkoutFn(ctx)
	}
	return &domain.Order{ID: "o1", Status: domain.OrderPending}, nil
}

func (f *fakeOrders) Orders(ctx context.Context) ([]domain.Order, error) {
	if f.ordersFn != nil {
		return f.ordersFn(ctx)
	}
	return nil, nil
}

func (f *fakeOrders) Order(ctx context.Context, id string) (*domain.Order, error) {
	if f.orderFn != nil {
		return f.orderFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	ts      *httptest.Server
	cart    *app.CartStore
	session *app.AuthSession
	remote  *fakeRemote
}

func newFixture(t *testing.T, identity *fakeIdentity) *fixture {
	t.Helper()
	return newOrderFixture(t, identity, &fakeOrders{})
}

func newOrderFixture(t *testing.T, identity *fakeIdentity, orders *fakeOrders) *fixture {
	t.Helper()
	if identity == nil {
		identity = &fakeIdentity{}
	}
	storage := memory.NewStorage()
	remote := &fakeRemote{}
	reg := prometheus.NewRegistry()

	session := app.NewAuthSession(identity, storage, nil)
	cart := app.NewCartStore(storage, remote, app.WithSyncObserver(metrics.NewCartObserver(reg)))
	session.Subscribe(cart.OnSessionChange)
	session.Restore(context.Background())

	catalog := fakeCatalog{
		"p1": {ID: "p1", Title: "Enamel Mug", Price: 12},
		"p2": {ID: "p2", Title: "Tea Towel", Price: 8},
	}
	checkout := app.NewCheckout(session, cart, orders, nil)
	ts := httptest.NewServer(facade.New(session, cart, catalog, checkout, reg, nil).Handler())
	t.Cleanup(func() {
		ts.Close()
		require.NoError(t, cart.Close(context.Background()))
	})
	return &fixture{ts: ts, cart: cart, session: session, remote: remote}
}

func (f *fixture) do(t *testing.T, method, path string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return resp.StatusCode, m
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSessionLoginFailureAndClearError(t *testing.T) {
	f := newFixture(t, &fakeIdentity{
		loginFn: func(context.Context, string, string) (string, error) {
			return "", &domain.AuthError{Op: "login", Msg: "Incorrect username or password"}
		},
	})

	status, body := f.do(t, http.MethodPost, "/api/session/login", map[string]any{"email": "a@example.com", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect username or password", body["error"])

	_, body = f.do(t, http.MethodGet, "/api/session", nil)
	assert.Equal(t, false, body["isAuthenticated"])
	assert.Equal(t, false, body["loading"])
	assert.Equal(t, "Incorrect username or password", body["error"])

	_, body = f.do(t, http.MethodDelete, "/api/session/error", nil)
	assert.Nil(t, body["error"])
}

func TestSessionLoginLogout(t *testing.T) {
	f := newFixture(t, nil)

	status, body := f.do(t, http.MethodPost, "/api/session/login", map[string]any{"email": "ivy@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isAuthenticated"])
	user, _ := body["user"].(map[string]any)
	assert.Equal(t, "ivy@example.com", user["email"])
	_, hasToken := body["Token"]
	assert.False(t, hasToken, "token must not be exposed")

	_, body = f.do(t, http.MethodPost, "/api/session/logout", nil)
	assert.Equal(t, false, body["isAuthenticated"])
	assert.Nil(t, body["user"])
}

func TestCartAnonymousStaysLocal(t *testing.T) {
	f := newFixture(t, nil)

	status, body := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 24.0, body["total"])
	assert.Equal(t, 2.0, body["itemCount"])

	_, body = f.do(t, http.MethodPut, "/api/cart/items/p1", map[string]any{"quantity": 3})
	assert.Equal(t, 3.0, body["itemCount"])

	_, body = f.do(t, http.MethodDelete, "/api/cart/items/p1", nil)
	assert.Equal(t, 0.0, body["itemCount"])
	assert.Equal(t, []any{}, body["items"])

	f.cart.Wait()
	assert.Empty(t, f.remote.Calls())
}

func TestCartAuthenticatedMirrors(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/session/login", map[string]any{"email": "ivy@example.com", "password": "pw"})
	f.cart.Wait()

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p2", "quantity": 1})
	f.do(t, http.MethodPut, "/api/cart/items/p2", map[string]any{"quantity": 4})
	f.do(t, http.MethodDelete, "/api/cart/items/p2", nil)
	f.cart.Wait()

	assert.Equal(t, []string{"items", "add p2", "update p2", "remove p2"}, f.remote.Calls())
}

func TestCartRemoteFailureIsInvisible(t *testing.T) {
	f := newFixture(t, nil)
	f.remote.err = errors.New("backend down")
	f.do(t, http.MethodPost, "/api/session/login", map[string]any{"email": "ivy@example.com", "password": "pw"})

	status, body := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1", "quantity": 1})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["itemCount"])
	f.cart.Wait()

	resp, err := http.Get(f.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `storefront_cart_mirror_total{op="add",result="error"} 1`), string(raw))
}

func TestCartAddValidation(t *testing.T) {
	f := newFixture(t, nil)

	status, body := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "nope", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "product not found", body["error"])

	status, _ = f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	_, body = f.do(t, http.MethodGet, "/api/cart", nil)
	assert.Equal(t, 0.0, body["itemCount"])
}

func TestCartSyncRequiresSession(t *testing.T) {
	f := newFixture(t, nil)

	status, body := f.do(t, http.MethodPost, "/api/cart/sync", nil)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, false, body["scheduled"])
}

func TestCheckoutRequiresSignIn(t *testing.T) {
	f := newFixture(t, nil)
	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1", "quantity": 1})

	status, body := f.do(t, http.MethodPost, "/api/checkout", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Sign in to check out", body["error"])
}

func TestCheckoutPlacesOrderAndEmptiesCart(t *testing.T) {
	f := newOrderFixture(t, nil, &fakeOrders{
		checkoutFn: func(context.Context) (*domain.Order, error) {
			return &domain.Order{ID: "o7", Status: domain.OrderPending, TotalAmount: 24}, nil
		},
	})
	f.do(t, http.MethodPost, "/api/session/login", map[string]any{"email": "ivy@example.com", "password": "pw"})

	status, body := f.do(t, http.MethodPost, "/api/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Your cart is empty", body["error"])

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1", "quantity": 2})

	status, body = f.do(t, http.MethodPost, "/api/checkout", nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "o7", body["id"])
	assert.Equal(t, 24.0, body["total_amount"])
	assert.Contains(t, f.remote.Calls(), "add p1", "local lines reach the backend before the order")

	_, body = f.do(t, http.MethodGet, "/api/cart", nil)
	assert.Empty(t, body["items"])
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	f := newOrderFixture(t, nil, &fakeOrders{
		checkoutFn: func(context.Context) (*domain.Order, error) {
			return nil, &domain.ValidationError{Op: "checkout", Msg: "Cart is empty or invalid"}
		},
	})
	f.do(t, http.MethodPost, "/api/session/login", map[string]any{"email": "ivy@example.com", "password": "pw"})
	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p2", "quantity": 1})

	status, body := f.do(t, http.MethodPost, "/api/checkout", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cart is empty or invalid", body["error"])
	assert.Len(t, f.cart.Snapshot().Lines, 1)
}

func TestOrders(t *testing.T) {
	f := newOrderFixture(t, nil, &fakeOrders{
		ordersFn: func(context.Context) ([]domain.Order, error) {
			return []domain.Order{{ID: "o2"}, {ID: "o1"}}, nil
		},
		orderFn: func(_ context.Context, id string) (*domain.Order, error) {
			if id == "o1" {
				return &domain.Order{ID: "o1", Currency: "USD"}, nil
			}
			return nil, domain.ErrNotFound
		},
	})

	resp, err := http.Get(f.ts.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	var list []domain.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "o2", list[0].ID)

	status, body := f.do(t, http.MethodGet, "/api/orders/o1", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "USD", body["currency"])

	status, body = f.do(t, http.MethodGet, "/api/orders/o9", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "order not found", body["error"])
}
