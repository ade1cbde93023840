package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/limiter"
	"github.com/and161185/imageshop/internal/metrics"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/notify"
	"go.uber.org/zap"
)

// AuthChecker reports whether a user is signed in.
type AuthChecker interface {
	Authenticated() bool
}

// Owner reports whether the current user already owns an image.
type Owner interface {
	Owns(imageID string) bool
}

// Cart keeps the canonical deduplicated line list mirroring the server cart.
// Adds wait for the server; removes are applied locally whatever the server says.
// One mutation per image id may be outstanding at a time.
type Cart struct {
	api     CartAPI
	catalog ImageLookup
	auth    AuthChecker
	owner   Owner
	notes   notify.Notifier
	guard   *limiter.Guard
	m       *metrics.Metrics
	log     *zap.Logger

	mu    sync.RWMutex
	lines []model.CartLine
}

// NewCart constructs an empty Cart.
func NewCart(api CartAPI, catalog ImageLookup, auth AuthChecker, owner Owner, notes notify.Notifier, m *metrics.Metrics, log *zap.Logger) *Cart {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cart{
		api:     api,
		catalog: catalog,
		auth:    auth,
		owner:   owner,
		notes:   notes,
		guard:   limiter.NewGuard(),
		m:       m,
		log:     log,
	}
}

// Sync replaces local lines with the normalized server cart.
func (c *Cart) Sync(ctx context.Context) error {
	raw, err := c.api.Get(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	lines, err := NormalizeCart(raw, c.catalog)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.lines = lines
	c.mu.Unlock()
	return nil
}

// Add puts one unit of img into the cart after the server confirms it.
func (c *Cart) Add(ctx context.Context, img model.Image) error {
	if !c.auth.Authenticated() {
		c.notes.Notify("Please sign in to add images to your cart", notify.Options{Type: notify.Warning})
		c.m.CartMutation("add", metrics.OutcomeRejected)
		return errs.ErrAuthRequired
	}
	if c.owner.Owns(img.ID) {
		c.notes.Notify("You already own this image", notify.Options{Type: notify.Info})
		c.m.CartMutation("add", metrics.OutcomeRejected)
		return errs.ErrAlreadyOwned
	}
	if !c.guard.TryAcquire(img.ID) {
		return errs.ErrMutationInFlight
	}
	defer c.guard.Release(img.ID)

	if err := c.api.AddItem(ctx, img.ID); err != nil {
		c.log.Warn("add to cart failed", zap.String("image_id", img.ID), zap.Error(err))
		c.notes.Notify(errs.UserMessage(err, "Failed to add to cart"), notify.Options{Type: notify.Error})
		c.m.CartMutation("add", metrics.OutcomeError)
		return fmt.Errorf("add to cart: %w", err)
	}
	if snap, ok := c.catalog.Image(img.ID); ok {
		img = snap
	}
	c.mu.Lock()
	if i := c.indexLocked(img.ID); i >= 0 {
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, model.CartLine{ImageID: img.ID, Image: img, Quantity: 1})
	}
	c.mu.Unlock()
	c.m.CartMutation("add", metrics.OutcomeOK)
	return nil
}

// Remove deletes the line for imageID. A server failure is logged, never surfaced.
func (c *Cart) Remove(ctx context.Context, imageID string) error {
	if !c.guard.TryAcquire(imageID) {
		return errs.ErrMutationInFlight
	}
	defer c.guard.Release(imageID)

	c.removeLine(ctx, imageID)
	return nil
}

func (c *Cart) removeLine(ctx context.Context, imageID string) {
	if err := c.api.RemoveItem(ctx, imageID); err != nil {
		c.log.Warn("remove from cart failed, removing locally", zap.String("image_id", imageID), zap.Error(err))
		c.m.CartMutation("remove", metrics.OutcomeError)
	} else {
		c.m.CartMutation("remove", metrics.OutcomeOK)
	}
	c.mu.Lock()
	if i := c.indexLocked(imageID); i >= 0 {
		c.lines = append(c.lines[:i:i], c.lines[i+1:]...)
	}
	c.mu.Unlock()
}

// ChangeQuantity steps the line toward newQty by exactly one unit per call.
// newQty <= 0 removes the line; an increase goes through one add-item call, a decrease
// through one remove-item call and never drops below 1.
func (c *Cart) ChangeQuantity(ctx context.Context, imageID string, newQty int) error {
	if newQty <= 0 {
		return c.Remove(ctx, imageID)
	}
	cur, ok := c.quantity(imageID)
	if !ok {
		return fmt.Errorf("cart line %s: %w", imageID, errs.ErrNotFound)
	}
	if newQty == cur {
		return nil
	}
	if !c.guard.TryAcquire(imageID) {
		return errs.ErrMutationInFlight
	}
	defer c.guard.Release(imageID)

	if newQty > cur {
		if err := c.api.AddItem(ctx, imageID); err != nil {
			c.log.Warn("increment failed", zap.String("image_id", imageID), zap.Error(err))
			c.notes.Notify(errs.UserMessage(err, "Failed to update quantity"), notify.Options{Type: notify.Error})
			c.m.CartMutation("increment", metrics.OutcomeError)
			return fmt.Errorf("increment: %w", err)
		}
		c.step(imageID, +1)
		c.m.CartMutation("increment", metrics.OutcomeOK)
		return nil
	}

	if err := c.api.RemoveItem(ctx, imageID); err != nil {
		c.log.Warn("decrement failed, applying locally", zap.String("image_id", imageID), zap.Error(err))
		c.m.CartMutation("decrement", metrics.OutcomeError)
	} else {
		c.m.CartMutation("decrement", metrics.OutcomeOK)
	}
	c.step(imageID, -1)
	return nil
}

func (c *Cart) step(imageID string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(imageID)
	if i < 0 {
		return
	}
	q := c.lines[i].Quantity + delta
	if q < 1 {
		q = 1
	}
	c.lines[i].Quantity = q
}

// Clear empties the server cart best-effort, then always the local one.
func (c *Cart) Clear(ctx context.Context) {
	if err := c.api.Clear(ctx); err != nil {
		c.log.Warn("server cart clear failed", zap.Error(err))
	}
	c.Reset()
}

// Reset drops local lines without touching the server (logout).
func (c *Cart) Reset() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a snapshot of the cart.
func (c *Cart) Lines() []model.CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.CartLine(nil), c.lines...)
}

// Contains reports whether imageID has a line.
func (c *Cart) Contains(imageID string) bool {
	_, ok := c.quantity(imageID)
	return ok
}

// Busy reports whether a mutation for imageID is outstanding.
func (c *Cart) Busy(imageID string) bool { return c.guard.Busy(imageID) }

// Total is the sum of price × quantity.
func (c *Cart) Total() model.Money {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var t model.Money
	for _, l := range c.lines {
		t += l.Subtotal()
	}
	return t
}

// Count is the sum of quantities.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) quantity(imageID string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(imageID); i >= 0 {
		return c.lines[i].Quantity, true
	}
	return 0, false
}

// indexLocked requires c.mu.
func (c *Cart) indexLocked(imageID string) int {
	for i := range c.lines {
		if c.lines[i].ImageID == imageID {
			return i
		}
	}
	return -1
}
