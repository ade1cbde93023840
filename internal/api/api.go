// Package api provides typed wrappers over the storefront REST endpoints.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/imageshop/internal/httpclient"
	"github.com/and161185/imageshop/internal/model"
)

// Doer is the subset of *httpclient.Client the wrappers need.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request, out any) error
	Raw(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

var _ Doer = (*httpclient.Client)(nil)

// API groups every endpoint family.
type API struct {
	Auth             *Auth
	Users            *Users
	Images           *Resource[model.Image]
	Categories       *Resource[model.Category]
	Tags             *Resource[model.Tag]
	Cart             *Cart
	Orders           *Orders
	OrderItems       *OrderItems
	Purchases        *Purchases
	UserTransactions *UserTransactions
}

// New wires all endpoint families over d.
func New(d Doer) *API {
	return &API{
		Auth:             &Auth{d: d},
		Users:            &Users{Resource: NewResource[model.User](d, "/Users")},
		Images:           NewResource[model.Image](d, "/Images"),
		Categories:       NewResource[model.Category](d, "/Categories"),
		Tags:             NewResource[model.Tag](d, "/Tags"),
		Cart:             &Cart{d: d},
		Orders:           &Orders{Resource: NewResource[model.Order](d, "/Orders")},
		OrderItems:       &OrderItems{Resource: NewResource[model.OrderItem](d, "/OrderItems")},
		Purchases:        &Purchases{Resource: NewResource[model.PurchaseHistory](d, "/Purchases")},
		UserTransactions: &UserTransactions{d: d},
	}
}

// Resource is a plain CRUD collection at path.
type Resource[T any] struct {
	d    Doer
	path string
}

// NewResource constructs a CRUD wrapper for path (e.g. "/Images").
func NewResource[T any](d Doer, path string) *Resource[T] {
	return &Resource[T]{d: d, path: path}
}

func (r *Resource[T]) item(id string) string { return r.path + "/" + url.PathEscape(id) }

// List returns every entity.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.d.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: r.path}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one entity by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.d.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: r.item(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts v and returns the server's echo (v itself when the body is empty).
func (r *Resource[T]) Create(ctx context.Context, v T) (*T, error) {
	out := v
	if err := r.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: r.path, Body: v}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update puts v at id and returns the server's echo (v itself when the body is empty).
func (r *Resource[T]) Update(ctx context.Context, id string, v T) (*T, error) {
	out := v
	if err := r.d.Do(ctx, httpclient.Request{Method: http.MethodPut, Path: r.item(id), Body: v}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.d.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: r.item(id)}, nil)
}
