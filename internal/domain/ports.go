package domain

import "context"

// IdentityProvider is the remote authentication service.
type IdentityProvider interface {
	Login(ctx context.Context, email, password string) (string, error)
	CurrentUser(ctx context.Context) (*User, error)
	Register(ctx context.Context, email, password, fullName string) error
}

// RemoteCart is the remote cart service mirrored by the local cart.
type RemoteCart interface {
	AddItem(ctx context.Context, productID string, qty int) error
	UpdateItem(ctx context.Context, lineID string, qty int) error
	RemoveItem(ctx context.Context, lineID string) error
	Items(ctx context.Context) ([]RemoteLine, error)
}

// LocalStorage is durable key/value storage local to the process.
// A missing key is reported with ok == false, not an error.
type LocalStorage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Catalog resolves products for the cart.
type Catalog interface {
	Product(ctx context.Context, id string) (*Product, error)
	Products(ctx context.Context, offset, limit int) ([]Product, error)
}

// OrderClient places and reads the signed-in user's orders remotely.
type OrderClient interface {
	Checkout(ctx context.Context) (*Order, error)
	Orders(ctx context.Context) ([]Order, error)
	Order(ctx context.Context, id string) (*Order, error)
}
