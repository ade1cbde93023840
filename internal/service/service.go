// Package service contains the storefront application services: session, catalog,
// cart reconciliation, purchase ledger and the storefront facade tying them together.
package service

import (
	"context"

	"github.com/and161185/imageshop/internal/api"
	"github.com/and161185/imageshop/internal/model"
)

// AuthAPI is the /Auth surface used by Session.
type AuthAPI interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	CompleteRegistration(ctx context.Context, req model.CompleteRegistrationRequest) error
	ResendVerificationCode(ctx context.Context, email string) error
	Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error)
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error
}

// UsersAPI is the /Users surface used by Session.
type UsersAPI interface {
	Me(ctx context.Context) (*model.User, error)
	TopUp(ctx context.Context, amount model.Money) (*model.User, error)
}

// Collection is a CRUD endpoint family.
type Collection[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, v T) (*T, error)
	Update(ctx context.Context, id string, v T) (*T, error)
	Delete(ctx context.Context, id string) error
}

// CartAPI is the /Cart surface.
type CartAPI interface {
	Get(ctx context.Context) ([]byte, error)
	AddItem(ctx context.Context, imageID string) error
	RemoveItem(ctx context.Context, imageID string) error
	Clear(ctx context.Context) error
}

// OrdersAPI is the /Orders surface used by the remote ledger.
type OrdersAPI interface {
	Create(ctx context.Context, o model.Order) (*model.Order, error)
	BuyImage(ctx context.Context, imageID string) error
}

// PurchasesAPI is the /Purchases surface used by the remote ledger.
type PurchasesAPI interface {
	List(ctx context.Context) ([]model.PurchaseHistory, error)
}

// Navigator moves the consumer to a route, e.g. "/login".
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) { f(path) }

// LoginRoute is where a logout lands.
const LoginRoute = "/login"

var (
	_ AuthAPI                    = (*api.Auth)(nil)
	_ UsersAPI                   = (*api.Users)(nil)
	_ Collection[model.Image]    = (*api.Resource[model.Image])(nil)
	_ Collection[model.Category] = (*api.Resource[model.Category])(nil)
	_ Collection[model.Tag]      = (*api.Resource[model.Tag])(nil)
	_ CartAPI                    = (*api.Cart)(nil)
	_ OrdersAPI                  = (*api.Orders)(nil)
	_ PurchasesAPI               = (*api.Purchases)(nil)
)
