// Package apiclient talks to the storefront backend API. It implements the
// client's IdentityProvider, RemoteCart, Catalog and OrderClient ports.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/app"
	"storefront/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	_ domain.IdentityProvider = (*Client)(nil)
	_ domain.RemoteCart       = (*Client)(nil)
	_ domain.Catalog          = (*Client)(nil)
	_ domain.OrderClient      = (*Client)(nil)
)

// errNoToken is returned by the token source when no session is stored.
var errNoToken = errors.New("no saved token")

// Client is an HTTP client for the backend API rooted at baseURL, for
// example http://localhost:8000/api/v1.
type Client struct {
	baseURL string
	raw     *http.Client
	authed  *http.Client
	oauth   *oauth2.Config
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its Transport is reused
// for authenticated requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.raw = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// New creates a Client. Authenticated requests carry the bearer token kept
// in storage under app.TokenStorageKey, so a token saved by the session is
// picked up without further wiring.
func New(baseURL string, storage domain.LocalStorage, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		raw:     &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.raw.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.authed = &http.Client{
		Timeout: c.raw.Timeout,
		Transport: &oauth2.Transport{
			Source: &storageTokenSource{storage: storage, key: app.TokenStorageKey},
			Base:   base,
		},
	}
	c.oauth = &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.baseURL + "/auth/login",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return c
}

// Login exchanges credentials for a bearer token using the OAuth2 password
// grant. Rejected credentials are reported as *domain.AuthError.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.raw)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err == nil {
		return tok.AccessToken, nil
	}

	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return "", statusError("login", re.Response.StatusCode, re.Body)
	}
	return "", &domain.NetworkError{Op: "login", Msg: "could not reach the server", Err: err}
}

// CurrentUser returns the user the saved token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.do(ctx, c.authed, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password, fullName string) error {
	body := map[string]string{"email": email, "password": password, "full_name": fullName}
	return c.do(ctx, c.raw, http.MethodPost, "/auth/register", body, nil)
}

// AddItem adds qty of productID to the remote cart.
func (c *Client) AddItem(ctx context.Context, productID string, qty int) error {
	body := map[string]any{"product_id": productID, "quantity": qty}
	return c.do(ctx, c.authed, http.MethodPost, "/cart/items", body, nil)
}

// UpdateItem sets the quantity of a remote cart line.
func (c *Client) UpdateItem(ctx context.Context, lineID string, qty int) error {
	body := map[string]any{"quantity": qty}
	return c.do(ctx, c.authed, http.MethodPut, "/cart/items/"+url.PathEscape(lineID), body, nil)
}

// RemoveItem deletes a remote cart line.
func (c *Client) RemoveItem(ctx context.Context, lineID string) error {
	return c.do(ctx, c.authed, http.MethodDelete, "/cart/items/"+url.PathEscape(lineID), nil, nil)
}

// Items returns the remote cart lines.
func (c *Client) Items(ctx context.Context) ([]domain.RemoteLine, error) {
	var cart struct {
		Items []domain.RemoteLine `json:"items"`
	}
	if err := c.do(ctx, c.authed, http.MethodGet, "/cart/", nil, &cart); err != nil {
		return nil, err
	}
	return cart.Items, nil
}

// Product returns a product by id. A missing product is domain.ErrNotFound.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.do(ctx, c.raw, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Products returns one page of the catalog.
func (c *Client) Products(ctx context.Context, offset, limit int) ([]domain.Product, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	var out []domain.Product
	if err := c.do(ctx, c.raw, http.MethodGet, "/products/?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Checkout turns the remote cart into an order.
func (c *Client) Checkout(ctx context.Context) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, c.authed, http.MethodPost, "/orders/checkout", struct{}{}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Orders returns the signed-in user's orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, c.authed, http.MethodGet, "/orders/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Order returns one of the signed-in user's orders. Orders of other users
// are domain.ErrNotFound.
func (c *Client) Order(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := c.do(ctx, c.authed, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	op := strings.ToLower(method) + " " + strings.SplitN(path, "?", 2)[0]

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, errNoToken) {
			return &domain.AuthError{Op: op, Msg: "not signed in", Err: err}
		}
		return &domain.NetworkError{Op: op, Msg: "could not reach the server", Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		c.log.Debug("backend error", zap.String("op", op), zap.Int("status", resp.StatusCode))
		return statusError(op, resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.NetworkError{Op: op, Msg: "unexpected response from server", Err: err}
	}
	return nil
}

// statusError maps a non-2xx response to the domain error taxonomy.
func statusError(op string, status int, body []byte) error {
	msg := detail(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := fmt.Errorf("HTTP %d", status)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &domain.AuthError{Op: op, Msg: msg, Err: cause}
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %s: %w", op, msg, domain.ErrNotFound)
	case status >= 400 && status < 500:
		return &domain.ValidationError{Op: op, Msg: msg, Err: cause}
	default:
		return &domain.NetworkError{Op: op, Msg: msg, Err: cause}
	}
}

// detail extracts the human-readable message from an error body. The
// backend uses {"detail": "..."}; validation failures may carry a list
// of {"msg": "..."} objects instead.
func detail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &list); err == nil && len(list) > 0 {
		return list[0].Msg
	}
	return ""
}

// storageTokenSource reads the bearer token from LocalStorage on every
// request, so login and logout take effect immediately.
type storageTokenSource struct {
	storage domain.LocalStorage
	key     string
}

func (s *storageTokenSource) Token() (*oauth2.Token, error) {
	v, ok, err := s.storage.Get(context.Background(), s.key)
	if err != nil {
		return nil, err
	}
	if !ok || v == "" {
		return nil, errNoToken
	}
	return &oauth2.Token{AccessToken: v, TokenType: "Bearer"}, nil
}
