package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/filter"
	"github.com/and161185/imageshop/internal/metrics"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/notify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const checkoutFailed = "Failed to place order. Please try again later."

// Storefront ties session, catalog, cart and ledger together for the consumer.
type Storefront struct {
	Session *Session
	Catalog *Catalog
	Cart    *Cart
	Ledger  *LedgerSelector

	notes notify.Notifier
	m     *metrics.Metrics
	log   *zap.Logger

	mu        sync.RWMutex
	favorites map[string]struct{}
	price     filter.PriceRange
}

// NewStorefront wires the components and installs the session hooks.
func NewStorefront(session *Session, catalog *Catalog, cart *Cart, ledger *LedgerSelector, notes notify.Notifier, m *metrics.Metrics, log *zap.Logger) *Storefront {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Storefront{
		Session:   session,
		Catalog:   catalog,
		Cart:      cart,
		Ledger:    ledger,
		notes:     notes,
		m:         m,
		log:       log,
		favorites: map[string]struct{}{},
	}
	session.OnLogin(s.seedFavorites)
	session.OnLogout(s.resetUserState)
	return s
}

func (s *Storefront) seedFavorites(u *model.User) {
	fav := make(map[string]struct{}, len(u.WishlistIDs))
	for _, id := range u.WishlistIDs {
		fav[id] = struct{}{}
	}
	s.mu.Lock()
	s.favorites = fav
	s.mu.Unlock()
}

func (s *Storefront) resetUserState() {
	s.Cart.Reset()
	s.Ledger.Reset()
	s.mu.Lock()
	s.favorites = map[string]struct{}{}
	s.mu.Unlock()
}

// Bootstrap restores a persisted session and loads the catalog, then the user's cart and
// ownership. Nothing here is fatal: failures are logged and the storefront stays usable
// with whatever loaded. Without a catalog the cart is not synced, since every line would
// normalize away.
func (s *Storefront) Bootstrap(ctx context.Context) {
	u, err := s.Session.Bootstrap(ctx)
	if err != nil {
		s.log.Warn("session bootstrap", zap.Error(err))
	}
	if err := s.Catalog.Load(ctx); err != nil {
		s.log.Warn("catalog bootstrap", zap.Error(err))
		s.notes.Notify("Failed to load images. Please try again later.", notify.Options{Type: notify.Error, Title: "Gallery"})
		if u != nil {
			if err := s.Ledger.Refresh(ctx, u); err != nil {
				s.log.Warn("ledger refresh", zap.Error(err))
			}
		}
		return
	}
	s.observePrices()
	if u != nil {
		s.syncUser(ctx, u)
	}
}

// Login signs in and loads the user's cart and ownership.
func (s *Storefront) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	u, err := s.Session.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	s.syncUser(ctx, u)
	return u, nil
}

func (s *Storefront) syncUser(ctx context.Context, u *model.User) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.Cart.Sync(gctx); err != nil {
			s.log.Warn("cart sync", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := s.Ledger.Refresh(gctx, u); err != nil {
			s.log.Warn("ledger refresh", zap.Error(err))
		}
		return nil
	})
	_ = g.Wait()
}

// Checkout buys the whole cart and returns the charged total.
func (s *Storefront) Checkout(ctx context.Context) (model.Money, error) {
	u := s.Session.User()
	ledger := s.Ledger.For(u).Name()
	if u == nil || !s.Session.Authenticated() {
		s.notes.Notify("Please sign in to place an order", notify.Options{Type: notify.Warning})
		s.m.Checkout(ledger, metrics.OutcomeRejected)
		return 0, errs.ErrAuthRequired
	}
	lines := s.Cart.Lines()
	if len(lines) == 0 {
		s.notes.Notify("Cart is empty", notify.Options{Type: notify.Info})
		s.m.Checkout(ledger, metrics.OutcomeRejected)
		return 0, errs.ErrEmptyCart
	}
	total := s.Cart.Total()
	if u.Balance < total {
		s.notes.Notify(fmt.Sprintf("Insufficient funds: total %s, balance %s", total.Format(), u.Balance.Format()),
			notify.Options{Type: notify.Error, Title: "Checkout"})
		s.m.Checkout(ledger, metrics.OutcomeRejected)
		return 0, errs.ErrInsufficientFunds
	}

	if err := s.Ledger.Purchase(ctx, u, lines); err != nil {
		s.log.Warn("checkout failed", zap.String("ledger", ledger), zap.Error(err))
		s.notes.Notify(errs.UserMessage(err, checkoutFailed), notify.Options{Type: notify.Error, Title: "Checkout"})
		s.m.Checkout(ledger, metrics.OutcomeError)
		return 0, fmt.Errorf("checkout: %w", err)
	}

	s.Cart.Clear(ctx)
	s.Session.RefreshUser(ctx)
	s.m.Checkout(ledger, metrics.OutcomeOK)
	s.notes.Notify(fmt.Sprintf("Order placed! Amount: %s", total.Format()), notify.Options{Type: notify.Success, Title: "Thank you for your purchase"})
	s.log.Info("checkout", zap.String("ledger", ledger), zap.Int("lines", len(lines)), zap.Stringer("total", total))
	return total, nil
}

// BuyNow purchases a single image under the checkout contract.
func (s *Storefront) BuyNow(ctx context.Context, imageID string) error {
	img, ok := s.Catalog.Image(imageID)
	if !ok {
		return fmt.Errorf("image %s: %w", imageID, errs.ErrNotFound)
	}
	u := s.Session.User()
	ledger := s.Ledger.For(u).Name()
	if u == nil || !s.Session.Authenticated() {
		s.notes.Notify("Please sign in to buy images", notify.Options{Type: notify.Warning})
		return errs.ErrAuthRequired
	}
	if s.Ledger.Owns(imageID) {
		s.notes.Notify("You already own this image", notify.Options{Type: notify.Info})
		return errs.ErrAlreadyOwned
	}
	if u.Balance < img.Price {
		s.notes.Notify(fmt.Sprintf("Insufficient funds: price %s, balance %s", img.Price.Format(), u.Balance.Format()),
			notify.Options{Type: notify.Error})
		s.m.Checkout(ledger, metrics.OutcomeRejected)
		return errs.ErrInsufficientFunds
	}
	if err := s.Ledger.BuyNow(ctx, u, img); err != nil {
		s.notes.Notify(errs.UserMessage(err, checkoutFailed), notify.Options{Type: notify.Error})
		s.m.Checkout(ledger, metrics.OutcomeError)
		return fmt.Errorf("buy now: %w", err)
	}
	if s.Cart.Contains(imageID) {
		if err := s.Cart.Remove(ctx, imageID); err != nil && !errors.Is(err, errs.ErrMutationInFlight) {
			s.log.Warn("drop purchased image from cart", zap.Error(err))
		}
	}
	s.Session.RefreshUser(ctx)
	s.m.Checkout(ledger, metrics.OutcomeOK)
	s.notes.Notify(fmt.Sprintf("Purchased %q for %s", img.Title, img.Price.Format()), notify.Options{Type: notify.Success})
	return nil
}

// OriginalURL returns the full-resolution URL of an image the signed-in user owns.
func (s *Storefront) OriginalURL(imageID string) (string, error) {
	img, ok := s.Catalog.Image(imageID)
	if !ok {
		return "", fmt.Errorf("image %s: %w", imageID, errs.ErrNotFound)
	}
	if !s.Session.Authenticated() {
		return "", errs.ErrAuthRequired
	}
	if !s.Ledger.Owns(imageID) {
		return "", errs.ErrNotPurchased
	}
	if img.OriginalURL == "" {
		return "", fmt.Errorf("image %s has no original: %w", imageID, errs.ErrNotFound)
	}
	return img.OriginalURL, nil
}

// ToggleFavorite flips imageID in the local favorites and reports the new state.
func (s *Storefront) ToggleFavorite(imageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[imageID]; ok {
		delete(s.favorites, imageID)
		return false
	}
	s.favorites[imageID] = struct{}{}
	return true
}

// IsFavorite reports whether imageID is favorited.
func (s *Storefront) IsFavorite(imageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[imageID]
	return ok
}

// PriceRange returns the tracked slider bounds.
func (s *Storefront) PriceRange() (lo, hi model.Money) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price.Bounds()
}

// SetPriceRange records a user adjustment of the slider.
func (s *Storefront) SetPriceRange(lo, hi model.Money) {
	s.mu.Lock()
	s.price.Set(lo, hi)
	s.mu.Unlock()
}

func (s *Storefront) observePrices() {
	imgs := s.Catalog.Images()
	s.mu.Lock()
	s.price.Observe(imgs)
	s.mu.Unlock()
}

// VisibleImages applies st to the catalog. The price bounds come from the tracked range.
func (s *Storefront) VisibleImages(st model.FilterState) []model.Image {
	s.observePrices()
	s.mu.RLock()
	s.price.ApplyTo(&st)
	fav := make(map[string]struct{}, len(s.favorites))
	for id := range s.favorites {
		fav[id] = struct{}{}
	}
	s.mu.RUnlock()
	return filter.Apply(s.Catalog.Images(), s.Catalog.Tags(), fav, st)
}

// ResetPriceRange drops the user adjustment and snaps back to the catalog bounds.
func (s *Storefront) ResetPriceRange() {
	imgs := s.Catalog.Images()
	s.mu.Lock()
	s.price.Reset(imgs)
	s.mu.Unlock()
}
