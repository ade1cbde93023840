package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/notify"
	"github.com/and161185/imageshop/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestStorefront_CheckoutInsufficientFunds(t *testing.T) {
	u := shopper()
	u.Balance = 500
	h := newHarness(t, u)
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, imgA))

	_, err := h.store.Checkout(ctx)
	require.ErrorIs(t, err, errs.ErrInsufficientFunds)
	require.Empty(t, h.orders.orders)
	require.Len(t, h.cart.Lines(), 1)
	require.Zero(t, h.cartAPI.clears)
	require.Equal(t, notify.Error, h.notes.last().Opts.Type)
	require.Contains(t, h.notes.last().Message, "$10.00")
}

func TestStorefront_CheckoutRemote(t *testing.T) {
	u := shopper()
	u.Balance = 3000
	h := newHarness(t, u)
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, imgA))
	require.NoError(t, h.cart.Add(ctx, imgB))

	total, err := h.store.Checkout(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Money(1500), total)
	require.Len(t, h.orders.orders, 1)
	require.Equal(t, model.Money(1500), h.orders.orders[0].TotalAmount)
	require.Empty(t, h.cart.Lines())
	require.Equal(t, 1, h.cartAPI.clears)
	require.True(t, h.ledger.Owns("a"))
	require.True(t, h.ledger.Owns("b"))
	require.Equal(t, "Order placed! Amount: $15.00", h.notes.last().Message)
}

func TestStorefront_CheckoutPreconditions(t *testing.T) {
	h := newHarness(t, shopper())
	ctx := context.Background()

	_, err := h.store.Checkout(ctx)
	require.ErrorIs(t, err, errs.ErrAuthRequired)

	h.login(t)
	_, err = h.store.Checkout(ctx)
	require.ErrorIs(t, err, errs.ErrEmptyCart)
}

func TestStorefront_CheckoutServerFailureKeepsCart(t *testing.T) {
	h := newHarness(t, shopper())
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, imgB))
	h.orders.err = &errs.HTTPError{Status: 400, Message: "Order rejected"}

	_, err := h.store.Checkout(ctx)
	require.Error(t, err)
	require.Len(t, h.cart.Lines(), 1)
	require.False(t, h.ledger.Owns("b"))
	require.Equal(t, "Order rejected", h.notes.last().Message)
}

func TestStorefront_PrivilegedLocalPurchaseSurvivesRelogin(t *testing.T) {
	admin := &model.User{ID: "admin-1", Name: "Root", Email: "ann@example.com", Balance: 5000, Role: model.RolePrivileged}
	h := newHarness(t, admin)
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, imgC))

	total, err := h.store.Checkout(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Money(2000), total)
	require.Empty(t, h.orders.orders)
	require.Equal(t, model.Money(3000), h.session.User().Balance)
	require.True(t, h.ledger.Owns("c"))

	h.session.Logout(ctx)
	require.False(t, h.ledger.Owns("c"))
	require.Empty(t, h.cart.Lines())
	_, err = h.kv.Get(ctx, repository.FallbackBalanceKey("admin-1"))
	require.ErrorIs(t, err, errs.ErrNotFound)

	h.login(t)
	require.True(t, h.ledger.Owns("c"))
	require.Equal(t, model.Money(5000), h.session.User().Balance)

	url, err := h.store.OriginalURL("c")
	require.NoError(t, err)
	require.Equal(t, imgC.OriginalURL, url)
}

func TestStorefront_BuyNow(t *testing.T) {
	u := shopper()
	u.Balance = 1200
	h := newHarness(t, u)
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, imgA))

	require.ErrorIs(t, h.store.BuyNow(ctx, "ghost"), errs.ErrNotFound)
	require.ErrorIs(t, h.store.BuyNow(ctx, "c"), errs.ErrInsufficientFunds)

	require.NoError(t, h.store.BuyNow(ctx, "a"))
	require.Equal(t, []string{"a"}, h.orders.bought)
	require.False(t, h.cart.Contains("a"))
	require.True(t, h.ledger.Owns("a"))

	require.ErrorIs(t, h.store.BuyNow(ctx, "a"), errs.ErrAlreadyOwned)
	require.Len(t, h.orders.bought, 1)
}

func TestStorefront_OriginalURLGate(t *testing.T) {
	h := newHarness(t, shopper())
	h.purchases.rows = []model.PurchaseHistory{{ImageID: "b", UserEmail: "ann@example.com"}}
	h.login(t)

	_, err := h.store.OriginalURL("a")
	require.ErrorIs(t, err, errs.ErrNotPurchased)
	_, err = h.store.OriginalURL("nope")
	require.ErrorIs(t, err, errs.ErrNotFound)

	url, err := h.store.OriginalURL("b")
	require.NoError(t, err)
	require.Equal(t, imgB.OriginalURL, url)
}

func TestStorefront_FavoritesFollowSession(t *testing.T) {
	h := newHarness(t, shopper())
	h.login(t)
	ctx := context.Background()

	require.True(t, h.store.IsFavorite("b"))
	require.True(t, h.store.ToggleFavorite("a"))
	require.False(t, h.store.ToggleFavorite("b"))
	require.True(t, h.store.IsFavorite("a"))

	h.session.Logout(ctx)
	require.False(t, h.store.IsFavorite("a"))
}

func TestStorefront_VisibleImages(t *testing.T) {
	h := newHarness(t, shopper())
	h.login(t)

	require.Len(t, h.store.VisibleImages(model.FilterState{}), 3)
	lo, hi := h.store.PriceRange()
	require.Equal(t, model.Money(500), lo)
	require.Equal(t, model.Money(2000), hi)

	fav := h.store.VisibleImages(model.FilterState{FavoritesOnly: true})
	require.Len(t, fav, 1)
	require.Equal(t, "b", fav[0].ID)

	h.store.SetPriceRange(1500, 900)
	got := h.store.VisibleImages(model.FilterState{})
	require.Len(t, got, 1)
	require.Equal(t, "a", got[0].ID)

	h.store.ResetPriceRange()
	require.Len(t, h.store.VisibleImages(model.FilterState{SelectedCategoryIDs: map[string]struct{}{"urban": {}}}), 1)
}

func TestStorefront_BootstrapRestoresCartAndOwnership(t *testing.T) {
	h := newHarness(t, shopper())
	ctx := context.Background()
	require.NoError(t, h.kv.Set(ctx, repository.KeyAccessToken, "persisted"))
	h.cartAPI.raw = []byte(`["a","a","c"]`)
	h.purchases.rows = []model.PurchaseHistory{{ImageID: "b", UserEmail: "ann@example.com"}}

	h.store.Bootstrap(ctx)
	require.True(t, h.session.Authenticated())
	require.Len(t, h.catalog.Images(), 3)
	require.Len(t, h.cart.Lines(), 2)
	require.True(t, h.ledger.Owns("b"))
	require.True(t, h.store.IsFavorite("b"))
}

func TestStorefront_BootstrapAnonymous(t *testing.T) {
	h := newHarness(t, nil)
	h.store.Bootstrap(context.Background())
	require.False(t, h.session.Authenticated())
	require.Len(t, h.catalog.Images(), 3)
	require.Empty(t, h.cart.Lines())
}

func TestStorefront_FailedReloginDropsPreviousUser(t *testing.T) {
	h := newHarness(t, shopper())
	h.purchases.rows = []model.PurchaseHistory{{ImageID: "a", UserEmail: "ann@example.com"}}
	h.login(t)
	ctx := context.Background()
	require.NoError(t, h.cart.Add(ctx, imgB))
	url, err := h.store.OriginalURL("a")
	require.NoError(t, err)
	require.Equal(t, imgA.OriginalURL, url)

	h.auth.loginErr = &errs.HTTPError{Status: http.StatusUnauthorized, Method: "POST", Path: "/Auth/login"}
	_, err = h.store.Login(ctx, model.LoginRequest{Email: "bob@example.com", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrAuth)

	require.False(t, h.session.Authenticated())
	require.Nil(t, h.tokens.Get())
	_, err = h.store.OriginalURL("a")
	require.ErrorIs(t, err, errs.ErrAuthRequired)
	require.Empty(t, h.cart.Lines())
	require.False(t, h.ledger.Owns("a"))
	require.False(t, h.store.IsFavorite("b"))
}

func TestStorefront_OriginalURLRequiresSignIn(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.catalog.Load(context.Background()))

	_, err := h.store.OriginalURL("a")
	require.ErrorIs(t, err, errs.ErrAuthRequired)
}

func TestStorefront_BootstrapSurvivesCatalogFailure(t *testing.T) {
	h := newHarness(t, shopper())
	ctx := context.Background()
	require.NoError(t, h.kv.Set(ctx, repository.KeyAccessToken, "persisted"))
	h.images.listErr = errs.ErrNetwork
	h.purchases.rows = []model.PurchaseHistory{{ImageID: "b", UserEmail: "ann@example.com"}}

	h.store.Bootstrap(ctx)

	require.True(t, h.session.Authenticated())
	require.Empty(t, h.catalog.Images())
	require.True(t, h.ledger.Owns("b"))
	require.Equal(t, notify.Error, h.notes.last().Opts.Type)

	h.session.Logout(ctx)
	require.Nil(t, h.tokens.Get())
	_, err := h.kv.Get(ctx, repository.KeyAccessToken)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
