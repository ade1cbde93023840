package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/imageshop/internal/httpclient"
	"github.com/and161185/imageshop/internal/model"
)

// Auth covers /Auth/*.
type Auth struct{ d Doer }

// Register starts registration; the server emails a verification code.
func (a *Auth) Register(ctx context.Context, req model.RegisterRequest) error {
	return a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Auth/register", Body: req}, nil)
}

// CompleteRegistration confirms the emailed code.
func (a *Auth) CompleteRegistration(ctx context.Context, req model.CompleteRegistrationRequest) error {
	return a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Auth/complete-registration", Body: req}, nil)
}

// ResendVerificationCode asks for a fresh code.
func (a *Auth) ResendVerificationCode(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Auth/resend-verification-code", Body: body}, nil)
}

// Login exchanges credentials for a token pair. A 401 here means bad credentials,
// so the call bypasses the refresh dance.
func (a *Auth) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	err := a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Auth/login", Body: req, SkipAuthRefresh: true}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session server-side. Never goes through the refresh dance.
func (a *Auth) Logout(ctx context.Context) error {
	return a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Auth/logout", SkipAuthRefresh: true}, nil)
}

// ChangePassword updates the current user's password.
func (a *Auth) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	return a.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Auth/change-password", Body: req}, nil)
}

// Users covers /Users.
type Users struct {
	*Resource[model.User]
}

// Me returns the authenticated user.
func (u *Users) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := u.d.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/Users/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopUp credits the balance and returns the updated user.
func (u *Users) TopUp(ctx context.Context, amount model.Money) (*model.User, error) {
	var out model.User
	body := map[string]model.Money{"amount": amount}
	if err := u.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Users/topup", Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cart covers /Cart. Get returns the raw payload; its shape varies by deployment.
type Cart struct{ d Doer }

// Get returns the raw cart payload.
func (c *Cart) Get(ctx context.Context) ([]byte, error) {
	resp, err := c.d.Raw(ctx, httpclient.Request{Method: http.MethodGet, Path: "/Cart"})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// AddItem adds one unit of imageID.
func (c *Cart) AddItem(ctx context.Context, imageID string) error {
	body := map[string]string{"imageId": imageID}
	return c.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Cart/items", Body: body}, nil)
}

// RemoveItem removes one unit of imageID.
func (c *Cart) RemoveItem(ctx context.Context, imageID string) error {
	return c.d.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: "/Cart/items/" + url.PathEscape(imageID)}, nil)
}

// Clear empties the server cart.
func (c *Cart) Clear(ctx context.Context) error {
	return c.d.Do(ctx, httpclient.Request{Method: http.MethodDelete, Path: "/Cart"}, nil)
}

// Orders covers /Orders.
type Orders struct {
	*Resource[model.Order]
}

// BuyImage purchases a single image immediately.
func (o *Orders) BuyImage(ctx context.Context, imageID string) error {
	return o.d.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/Orders/buy/" + url.PathEscape(imageID)}, nil)
}

// OrderItems covers /OrderItems.
type OrderItems struct {
	*Resource[model.OrderItem]
}

// ByOrder lists the items of one order.
func (o *OrderItems) ByOrder(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	var out []model.OrderItem
	err := o.d.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/OrderItems/order/" + url.PathEscape(orderID)}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Purchases covers /Purchases.
type Purchases struct {
	*Resource[model.PurchaseHistory]
}

// XLSXContentType is the media type of the purchases export.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export downloads the purchases spreadsheet (admin only).
func (p *Purchases) Export(ctx context.Context) ([]byte, error) {
	resp, err := p.d.Raw(ctx, httpclient.Request{Method: http.MethodGet, Path: "/Purchases/export", Accept: XLSXContentType})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// UserTransactions covers /UserTransactions.
type UserTransactions struct{ d Doer }

// Mine lists the current user's balance movements.
func (u *UserTransactions) Mine(ctx context.Context) ([]model.UserTransaction, error) {
	var out []model.UserTransaction
	if err := u.d.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/UserTransactions/me"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
