package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/and161185/imageshop/internal/config"
	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// PurchaseLedger records and answers which images a user owns.
type PurchaseLedger interface {
	// Name labels the ledger in logs and metrics.
	Name() string
	// Load returns the set of image ids owned by u.
	Load(ctx context.Context, u *model.User) (map[string]struct{}, error)
	// Purchase buys every line of a cart.
	Purchase(ctx context.Context, u *model.User, lines []model.CartLine) error
	// BuyNow buys a single image.
	BuyNow(ctx context.Context, u *model.User, img model.Image) error
}

// RemoteLedger is backed by the server: orders for writes, purchase history for reads.
type RemoteLedger struct {
	orders    OrdersAPI
	purchases PurchasesAPI
	now       func() time.Time
}

var _ PurchaseLedger = (*RemoteLedger)(nil)

// NewRemoteLedger constructs a RemoteLedger.
func NewRemoteLedger(orders OrdersAPI, purchases PurchasesAPI) *RemoteLedger {
	return &RemoteLedger{orders: orders, purchases: purchases, now: time.Now}
}

// Name implements PurchaseLedger.
func (*RemoteLedger) Name() string { return config.LedgerRemote }

// Load filters the full purchase history by the user's email, case-insensitively.
func (l *RemoteLedger) Load(ctx context.Context, u *model.User) (map[string]struct{}, error) {
	all, err := l.purchases.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load purchases: %w", err)
	}
	owned := map[string]struct{}{}
	for _, p := range all {
		if p.ImageID != "" && strings.EqualFold(strings.TrimSpace(p.UserEmail), strings.TrimSpace(u.Email)) {
			owned[p.ImageID] = struct{}{}
		}
	}
	return owned, nil
}

// Purchase creates one pending order holding every cart line.
func (l *RemoteLedger) Purchase(ctx context.Context, u *model.User, lines []model.CartLine) error {
	orderID, err := uuid.NewV4()
	if err != nil {
		return err
	}
	o := model.Order{
		ID:        orderID.String(),
		UserID:    u.ID,
		CreatedAt: l.now().UTC(),
		Status:    model.OrderPending,
		Currency:  "USD",
		Notes:     "Order from website",
	}
	for _, ln := range lines {
		itemID, err := uuid.NewV4()
		if err != nil {
			return err
		}
		o.TotalAmount += ln.Subtotal()
		o.Items = append(o.Items, model.OrderItem{ID: itemID.String(), OrderID: o.ID, ImageID: ln.ImageID})
	}
	if _, err := l.orders.Create(ctx, o); err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	return nil
}

// BuyNow purchases one image through the dedicated endpoint.
func (l *RemoteLedger) BuyNow(ctx context.Context, _ *model.User, img model.Image) error {
	if err := l.orders.BuyImage(ctx, img.ID); err != nil {
		return fmt.Errorf("buy image: %w", err)
	}
	return nil
}

// LocalLedger simulates purchases in the session KV: a per-user purchased-id set and a
// per-user balance debited by each purchase, floored at zero.
type LocalLedger struct {
	kv  repository.KV
	log *zap.Logger
	mu  sync.Mutex
}

var _ PurchaseLedger = (*LocalLedger)(nil)

// NewLocalLedger constructs a LocalLedger.
func NewLocalLedger(kv repository.KV, log *zap.Logger) *LocalLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalLedger{kv: kv, log: log}
}

// Name implements PurchaseLedger.
func (*LocalLedger) Name() string { return config.LedgerLocal }

// Load reads the persisted purchased-id set.
func (l *LocalLedger) Load(ctx context.Context, u *model.User) (map[string]struct{}, error) {
	ids, err := l.readIDs(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		owned[id] = struct{}{}
	}
	return owned, nil
}

// Purchase merges the line ids into the set and debits their total.
func (l *LocalLedger) Purchase(ctx context.Context, u *model.User, lines []model.CartLine) error {
	ids := make([]string, 0, len(lines))
	var total model.Money
	for _, ln := range lines {
		ids = append(ids, ln.ImageID)
		total += ln.Subtotal()
	}
	return l.record(ctx, u, ids, total)
}

// BuyNow merges one id and debits its price.
func (l *LocalLedger) BuyNow(ctx context.Context, u *model.User, img model.Image) error {
	return l.record(ctx, u, []string{img.ID}, img.Price)
}

// Balance returns the simulated balance for u, falling back to u.Balance.
func (l *LocalLedger) Balance(ctx context.Context, u *model.User) (model.Money, error) {
	raw, err := l.kv.Get(ctx, repository.FallbackBalanceKey(u.ID))
	if errors.Is(err, errs.ErrNotFound) {
		return u.Balance, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read fallback balance: %w", err)
	}
	bal, err := model.ParseMoney(raw)
	if err != nil {
		l.log.Warn("bad fallback balance, using account balance", zap.String("value", raw))
		return u.Balance, nil
	}
	return bal, nil
}

func (l *LocalLedger) record(ctx context.Context, u *model.User, ids []string, charge model.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	owned, err := l.readIDs(ctx, u.ID)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(owned)+len(ids))
	for _, id := range owned {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			owned = append(owned, id)
		}
	}
	raw, err := json.Marshal(owned)
	if err != nil {
		return err
	}

	bal, err := l.Balance(ctx, u)
	if err != nil {
		return err
	}
	bal -= charge
	if bal < 0 {
		bal = 0
	}

	if err := l.kv.Set(ctx, repository.FallbackPurchasesKey(u.ID), string(raw)); err != nil {
		return fmt.Errorf("persist purchases: %w", err)
	}
	if err := l.kv.Set(ctx, repository.FallbackBalanceKey(u.ID), bal.String()); err != nil {
		return fmt.Errorf("persist balance: %w", err)
	}
	l.log.Debug("local purchase recorded", zap.String("user_id", u.ID), zap.Int("items", len(ids)), zap.Stringer("charged", charge))
	return nil
}

func (l *LocalLedger) readIDs(ctx context.Context, userID string) ([]string, error) {
	raw, err := l.kv.Get(ctx, repository.FallbackPurchasesKey(userID))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fallback purchases: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		l.log.Warn("corrupt fallback purchases, starting empty", zap.Error(err))
		return nil, nil
	}
	return ids, nil
}

// LedgerSelector picks the ledger for a user by strategy and caches ownership.
// Strategy "auto" routes the privileged role to the local ledger and everyone else remote.
type LedgerSelector struct {
	remote   PurchaseLedger
	local    PurchaseLedger
	strategy string
	log      *zap.Logger

	mu    sync.RWMutex
	owned map[string]struct{}
}

// NewLedgerSelector constructs a selector. Unknown strategies behave as auto.
func NewLedgerSelector(remote, local PurchaseLedger, strategy string, log *zap.Logger) *LedgerSelector {
	if log == nil {
		log = zap.NewNop()
	}
	return &LedgerSelector{remote: remote, local: local, strategy: strategy, log: log, owned: map[string]struct{}{}}
}

// For returns the ledger serving u.
func (s *LedgerSelector) For(u *model.User) PurchaseLedger {
	switch s.strategy {
	case config.LedgerRemote:
		return s.remote
	case config.LedgerLocal:
		return s.local
	}
	if u != nil && u.Role == model.RolePrivileged {
		return s.local
	}
	return s.remote
}

// Refresh reloads ownership for u.
func (s *LedgerSelector) Refresh(ctx context.Context, u *model.User) error {
	owned, err := s.For(u).Load(ctx, u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.owned = owned
	s.mu.Unlock()
	return nil
}

// Owns implements Owner.
func (s *LedgerSelector) Owns(imageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owned[imageID]
	return ok
}

// Owned returns the owned ids, sorted.
func (s *LedgerSelector) Owned() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.owned))
	for id := range s.owned {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Purchase buys lines through u's ledger and marks them owned.
func (s *LedgerSelector) Purchase(ctx context.Context, u *model.User, lines []model.CartLine) error {
	if err := s.For(u).Purchase(ctx, u, lines); err != nil {
		return err
	}
	s.mu.Lock()
	for _, ln := range lines {
		s.owned[ln.ImageID] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// BuyNow buys img through u's ledger and marks it owned.
func (s *LedgerSelector) BuyNow(ctx context.Context, u *model.User, img model.Image) error {
	if err := s.For(u).BuyNow(ctx, u, img); err != nil {
		return err
	}
	s.mu.Lock()
	s.owned[img.ID] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Reset forgets cached ownership (logout).
func (s *LedgerSelector) Reset() {
	s.mu.Lock()
	s.owned = map[string]struct{}{}
	s.mu.Unlock()
}
