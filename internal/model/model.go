// Package model defines domain entities shared by the client layers.
package model

import (
	"time"
)

// Tokens is the access/refresh credential pair. The pair is always replaced as a whole.
type Tokens struct {
	AccessToken  string
	RefreshToken string    // optional
	ExpiresAt    time.Time // access token expiry (for diagnostics), zero if unknown
}

// Valid reports whether the pair carries an access token.
func (t *Tokens) Valid() bool { return t != nil && t.AccessToken != "" }

// AuthResponse is returned by /Auth/login and /Auth/refresh.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Role distinguishes regular shoppers from the privileged admin role.
type Role int

const (
	RoleStandard   Role = 0
	RolePrivileged Role = 1
)

func (r Role) String() string {
	if r == RolePrivileged {
		return "Admin"
	}
	return "User"
}

// User is the authenticated account record.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Balance     Money    `json:"balance"`
	Role        Role     `json:"role"`
	WishlistIDs []string `json:"wishlistIds"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.WishlistIDs = append([]string(nil), u.WishlistIDs...)
	return &c
}

// Image is a catalog entry. PreviewURL is watermarked; OriginalURL is gated by purchase.
type Image struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	PreviewURL  string `json:"watermarkedUrl"`
	OriginalURL string `json:"originalUrl"`
	CategoryID  string `json:"categoryId"`
}

// DisplayURL returns the preview, falling back to the original when no watermark exists.
func (i Image) DisplayURL() string {
	if i.PreviewURL != "" {
		return i.PreviewURL
	}
	return i.OriginalURL
}

// Category groups images; flat and admin-managed.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag labels images by display name; flat and admin-managed.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CartLine is one deduplicated cart entry. Quantity is always >= 1.
type CartLine struct {
	ImageID  string
	Image    Image // denormalized snapshot from the catalog
	Quantity int
}

// Subtotal is price × quantity.
func (l CartLine) Subtotal() Money { return l.Image.Price.Mul(l.Quantity) }

// PurchaseRecord marks an image as owned by the current user.
type PurchaseRecord struct {
	ImageID     string
	PurchasedAt time.Time
	Price       Money
}

// PurchaseHistory is a row of GET /Purchases.
type PurchaseHistory struct {
	ID          string    `json:"id"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	ImageID     string    `json:"imageId"`
	ImagePrice  Money     `json:"imagePrice"`
	ImageTitle  string    `json:"imageTitle"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

// OrderStatus mirrors the backend enum.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderProcessing
	OrderShipped
	OrderDelivered
	OrderCancelled
)

// Order is a multi-item purchase.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	CreatedAt   time.Time   `json:"createdAt"`
	Status      OrderStatus `json:"status"`
	TotalAmount Money       `json:"totalAmount"`
	Currency    string      `json:"currency"`
	Notes       string      `json:"notes"`
	Items       []OrderItem `json:"items"`
}

// OrderItem is a single image inside an order.
type OrderItem struct {
	ID      string `json:"id"`
	OrderID string `json:"orderId"`
	ImageID string `json:"imageId"`
}

// UserTransaction is a balance movement of the current user.
type UserTransaction struct {
	ID        string    `json:"id"`
	Amount    Money     `json:"amount"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// FilterState is consumer-owned gallery filter input; never persisted server-side.
type FilterState struct {
	SelectedCategoryIDs map[string]struct{}
	SelectedTagIDs      map[string]struct{}
	PriceMin            Money
	PriceMax            Money
	FavoritesOnly       bool
	ShowFavoritesOnly   bool
	SearchTerm          string
}

// LoginRequest is the body of POST /Auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /Auth/register.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// CompleteRegistrationRequest is the body of POST /Auth/complete-registration.
type CompleteRegistrationRequest struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePasswordRequest is the body of POST /Auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// RefreshRequest is the optional body of POST /Auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}
