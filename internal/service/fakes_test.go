package service

import (
	"context"
	"sync"
	"testing"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/notify"
	"github.com/and161185/imageshop/internal/repository"
	"github.com/and161185/imageshop/internal/tokenstore"
	"go.uber.org/zap/zaptest"
)

type fakeAuth struct {
	loginOut  *model.AuthResponse
	loginErr  error
	logoutErr error
	regErr    error

	logins    []model.LoginRequest
	logouts   int
	registers []model.RegisterRequest
	completes []model.CompleteRegistrationRequest
	resends   []string
	changes   []model.ChangePasswordRequest
}

var _ AuthAPI = (*fakeAuth)(nil)

func (f *fakeAuth) Register(_ context.Context, req model.RegisterRequest) error {
	f.registers = append(f.registers, req)
	return f.regErr
}
func (f *fakeAuth) CompleteRegistration(_ context.Context, req model.CompleteRegistrationRequest) error {
	f.completes = append(f.completes, req)
	return f.regErr
}
func (f *fakeAuth) ResendVerificationCode(_ context.Context, email string) error {
	f.resends = append(f.resends, email)
	return nil
}
func (f *fakeAuth) Login(_ context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	f.logins = append(f.logins, req)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginOut, nil
}
func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}
func (f *fakeAuth) ChangePassword(_ context.Context, req model.ChangePasswordRequest) error {
	f.changes = append(f.changes, req)
	return nil
}

type fakeUsers struct {
	mu      sync.Mutex
	me      *model.User
	meErr   error
	topUps  []model.Money
	meCalls int
}

var _ UsersAPI = (*fakeUsers)(nil)

func (f *fakeUsers) Me(context.Context) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.me.Clone(), nil
}
func (f *fakeUsers) TopUp(_ context.Context, amount model.Money) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topUps = append(f.topUps, amount)
	f.me.Balance += amount
	return f.me.Clone(), nil
}

type fakeCollection[T any] struct {
	items   []T
	listErr error
	created []T
	updated []T
	deleted []string
	opErr   error
}

func (f *fakeCollection[T]) List(context.Context) ([]T, error) {
	return append([]T(nil), f.items...), f.listErr
}
func (f *fakeCollection[T]) Create(_ context.Context, v T) (*T, error) {
	if f.opErr != nil {
		return nil, f.opErr
	}
	f.created = append(f.created, v)
	return &v, nil
}
func (f *fakeCollection[T]) Update(_ context.Context, _ string, v T) (*T, error) {
	if f.opErr != nil {
		return nil, f.opErr
	}
	f.updated = append(f.updated, v)
	return &v, nil
}
func (f *fakeCollection[T]) Delete(_ context.Context, id string) error {
	if f.opErr != nil {
		return f.opErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCartAPI struct {
	mu        sync.Mutex
	raw       []byte
	getErr    error
	addErr    error
	removeErr error
	clearErr  error
	adds      []string
	removes   []string
	clears    int
	block     chan struct{} // when set, AddItem waits on it
}

var _ CartAPI = (*fakeCartAPI)(nil)

func (f *fakeCartAPI) Get(context.Context) ([]byte, error) { return f.raw, f.getErr }
func (f *fakeCartAPI) AddItem(_ context.Context, id string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, id)
	return f.addErr
}
func (f *fakeCartAPI) RemoveItem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, id)
	return f.removeErr
}
func (f *fakeCartAPI) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return f.clearErr
}

type fakeOrders struct {
	orders []model.Order
	bought []string
	err    error
}

var _ OrdersAPI = (*fakeOrders)(nil)

func (f *fakeOrders) Create(_ context.Context, o model.Order) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.orders = append(f.orders, o)
	return &o, nil
}
func (f *fakeOrders) BuyImage(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.bought = append(f.bought, id)
	return nil
}

type fakePurchases struct {
	rows []model.PurchaseHistory
	err  error
}

func (f *fakePurchases) List(context.Context) ([]model.PurchaseHistory, error) { return f.rows, f.err }

type recordedNote struct {
	Message string
	Opts    notify.Options
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (f *fakeNotifier) Notify(message string, opts notify.Options) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, recordedNote{Message: message, Opts: opts})
	return message
}

func (f *fakeNotifier) last() recordedNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notes) == 0 {
		return recordedNote{}
	}
	return f.notes[len(f.notes)-1]
}

type staticAuth bool

func (a staticAuth) Authenticated() bool { return bool(a) }

type ownerSet map[string]struct{}

func (o ownerSet) Owns(id string) bool {
	_, ok := o[id]
	return ok
}

type lookupMap map[string]model.Image

func (m lookupMap) Image(id string) (model.Image, bool) {
	img, ok := m[id]
	return img, ok
}

var (
	imgA = model.Image{ID: "a", Title: "Alpine lake", Price: 1000, CategoryID: "nature", OriginalURL: "https://cdn/a.jpg"}
	imgB = model.Image{ID: "b", Title: "Beach", Price: 500, CategoryID: "nature", OriginalURL: "https://cdn/b.jpg"}
	imgC = model.Image{ID: "c", Title: "City lights", Price: 2000, CategoryID: "urban", OriginalURL: "https://cdn/c.jpg"}
)

func testCatalog() lookupMap {
	return lookupMap{imgA.ID: imgA, imgB.ID: imgB, imgC.ID: imgC}
}

// harness wires every service against fakes and an in-memory KV.
type harness struct {
	kv        *repository.Memory
	tokens    *tokenstore.Store
	auth      *fakeAuth
	users     *fakeUsers
	images    *fakeCollection[model.Image]
	cats      *fakeCollection[model.Category]
	tags      *fakeCollection[model.Tag]
	cartAPI   *fakeCartAPI
	orders    *fakeOrders
	purchases *fakePurchases
	notes     *fakeNotifier

	session *Session
	catalog *Catalog
	cart    *Cart
	ledger  *LedgerSelector
	store   *Storefront
}

func newHarness(t *testing.T, user *model.User) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	h := &harness{
		kv:        repository.NewMemory(),
		auth:      &fakeAuth{loginOut: &model.AuthResponse{AccessToken: "access-1", RefreshToken: "refresh-1"}},
		users:     &fakeUsers{me: user},
		images:    &fakeCollection[model.Image]{items: []model.Image{imgA, imgB, imgC}},
		cats:      &fakeCollection[model.Category]{items: []model.Category{{ID: "nature", Name: "Nature"}, {ID: "urban", Name: "Urban"}}},
		tags:      &fakeCollection[model.Tag]{},
		cartAPI:   &fakeCartAPI{},
		orders:    &fakeOrders{},
		purchases: &fakePurchases{},
		notes:     &fakeNotifier{},
	}
	if user == nil {
		h.users.meErr = errs.ErrAuth
	}
	h.tokens = tokenstore.New(h.kv, log)
	h.session = NewSession(h.auth, h.users, h.tokens, h.kv, log)
	h.catalog = NewCatalog(h.images, h.cats, h.tags, log)
	h.ledger = NewLedgerSelector(NewRemoteLedger(h.orders, h.purchases), NewLocalLedger(h.kv, log), "auto", log)
	h.cart = NewCart(h.cartAPI, h.catalog, h.session, h.ledger, h.notes, nil, log)
	h.store = NewStorefront(h.session, h.catalog, h.cart, h.ledger, h.notes, nil, log)
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := h.catalog.Load(ctx); err != nil {
		t.Fatalf("catalog load: %v", err)
	}
	if _, err := h.store.Login(ctx, model.LoginRequest{Email: "ann@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
}
