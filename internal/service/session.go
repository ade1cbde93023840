package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/repository"
	"github.com/and161185/imageshop/internal/tokenstore"
	"github.com/and161185/imageshop/internal/validate"
	"go.uber.org/zap"
)

// Session owns the authenticated user and drives the auth flows.
type Session struct {
	auth   AuthAPI
	users  UsersAPI
	tokens *tokenstore.Store
	kv     repository.KV
	log    *zap.Logger

	mu   sync.RWMutex
	user *model.User
	nav  Navigator

	hooksMu  sync.Mutex
	onLogin  []func(*model.User)
	onLogout []func()
}

// NewSession constructs a Session.
func NewSession(auth AuthAPI, users UsersAPI, tokens *tokenstore.Store, kv repository.KV, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{auth: auth, users: users, tokens: tokens, kv: kv, log: log}
}

// SetNavigator installs the route sink used by logout.
func (s *Session) SetNavigator(n Navigator) {
	s.mu.Lock()
	s.nav = n
	s.mu.Unlock()
}

// OnLogin registers fn to run after a user record is established.
func (s *Session) OnLogin(fn func(*model.User)) {
	s.hooksMu.Lock()
	s.onLogin = append(s.onLogin, fn)
	s.hooksMu.Unlock()
}

// OnLogout registers fn to run after the local session is cleared.
func (s *Session) OnLogout(fn func()) {
	s.hooksMu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.hooksMu.Unlock()
}

// User returns a copy of the current user or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// Authenticated reports whether a user is signed in with a live access token.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	has := s.user != nil
	s.mu.RUnlock()
	return has && s.tokens.AccessToken() != ""
}

func (s *Session) setUser(u *model.User) {
	s.mu.Lock()
	s.user = u.Clone()
	s.mu.Unlock()
}

// Login authenticates and loads the user record. Any failure leaves no tokens behind.
func (s *Session) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Login(req); err != nil {
		return nil, err
	}
	u, err := s.login(ctx, req)
	if err != nil {
		s.log.Info("login failed", zap.Error(err))
		s.reset(ctx, false)
		return nil, fmt.Errorf("login: %w: %w", errs.ErrAuth, err)
	}
	s.log.Info("logged in", zap.String("user_id", u.ID), zap.Stringer("role", u.Role))
	s.runLogin(u)
	return u.Clone(), nil
}

func (s *Session) login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	ar, err := s.auth.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	if ar.AccessToken == "" {
		return nil, errors.New("no access token in response")
	}
	if err := s.tokens.Set(ctx, &model.Tokens{AccessToken: ar.AccessToken, RefreshToken: ar.RefreshToken}); err != nil {
		s.log.Warn("persist tokens", zap.Error(err))
	}
	u, err := s.users.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	s.applyFallbackBalance(ctx, u)
	s.setUser(u)
	return u, nil
}

// Logout revokes the server session best-effort, then always clears local state and
// navigates to the sign-in route.
func (s *Session) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warn("remote logout failed, logging out locally", zap.Error(err))
	}
	s.reset(ctx, true)
}

// ForceLogout is the cascade run when a refresh exchange fails. It makes no network calls.
func (s *Session) ForceLogout() {
	s.log.Info("forced logout")
	s.reset(context.Background(), true)
}

// reset drops the user, their fallback balance and the tokens, then runs the logout hooks.
func (s *Session) reset(ctx context.Context, navigate bool) {
	s.mu.Lock()
	u := s.user
	s.user = nil
	nav := s.nav
	s.mu.Unlock()

	if u != nil {
		if err := s.kv.Delete(ctx, repository.FallbackBalanceKey(u.ID)); err != nil {
			s.log.Warn("clear fallback balance", zap.Error(err))
		}
	}
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Warn("clear tokens", zap.Error(err))
	}

	s.hooksMu.Lock()
	hooks := append([]func(){}, s.onLogout...)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	if navigate && nav != nil {
		nav.Navigate(LoginRoute)
	}
}

func (s *Session) runLogin(u *model.User) {
	s.hooksMu.Lock()
	hooks := append([]func(*model.User){}, s.onLogin...)
	s.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(u.Clone())
	}
}

// RefreshUser re-fetches the user and applies the fallback balance override.
// Returns nil on failure; callers treat it as best-effort.
func (s *Session) RefreshUser(ctx context.Context) *model.User {
	u, err := s.users.Me(ctx)
	if err != nil {
		s.log.Warn("refresh user", zap.Error(err))
		return nil
	}
	s.applyFallbackBalance(ctx, u)
	s.setUser(u)
	return u.Clone()
}

func (s *Session) applyFallbackBalance(ctx context.Context, u *model.User) {
	raw, err := s.kv.Get(ctx, repository.FallbackBalanceKey(u.ID))
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.log.Warn("read fallback balance", zap.Error(err))
		}
		return
	}
	bal, err := model.ParseMoney(raw)
	if err != nil {
		s.log.Warn("bad fallback balance", zap.String("value", raw), zap.Error(err))
		return
	}
	u.Balance = bal
}

// TopUpBalance credits the balance on the server, then refreshes the user.
func (s *Session) TopUpBalance(ctx context.Context, amount model.Money) (*model.User, error) {
	if err := validate.TopUpAmount(amount); err != nil {
		return nil, err
	}
	if s.User() == nil {
		return nil, errs.ErrAuthRequired
	}
	res, err := s.users.TopUp(ctx, amount)
	if err != nil {
		return nil, fmt.Errorf("top up: %w", err)
	}
	if u := s.RefreshUser(ctx); u != nil {
		return u, nil
	}
	s.applyFallbackBalance(ctx, res)
	s.setUser(res)
	return res.Clone(), nil
}

// FakeTopUp credits the balance locally only, persisting it to the fallback store.
func (s *Session) FakeTopUp(ctx context.Context, amount model.Money) (*model.User, error) {
	if err := validate.TopUpAmount(amount); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, errs.ErrAuthRequired
	}
	s.user.Balance += amount
	u := s.user.Clone()
	s.mu.Unlock()

	if err := s.kv.Set(ctx, repository.FallbackBalanceKey(u.ID), u.Balance.String()); err != nil {
		s.log.Warn("persist fallback balance", zap.Error(err))
	}
	return u, nil
}

// Register starts registration; the server emails a verification code.
func (s *Session) Register(ctx context.Context, req model.RegisterRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Register(req); err != nil {
		return err
	}
	if err := s.auth.Register(ctx, req); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// CompleteRegistration confirms the emailed code and signs the user in.
func (s *Session) CompleteRegistration(ctx context.Context, req model.CompleteRegistrationRequest) (*model.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := validate.CompleteRegistration(req); err != nil {
		return nil, err
	}
	if err := s.auth.CompleteRegistration(ctx, req); err != nil {
		return nil, fmt.Errorf("complete registration: %w", err)
	}
	return s.Login(ctx, model.LoginRequest{Email: req.Email, Password: req.Password})
}

// ResendVerificationCode asks for a fresh code.
func (s *Session) ResendVerificationCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := s.auth.ResendVerificationCode(ctx, email); err != nil {
		return fmt.Errorf("resend code: %w", err)
	}
	return nil
}

// ChangePassword updates the signed-in user's password.
func (s *Session) ChangePassword(ctx context.Context, req model.ChangePasswordRequest) error {
	if err := validate.ChangePassword(req); err != nil {
		return err
	}
	if !s.Authenticated() {
		return errs.ErrAuthRequired
	}
	if err := s.auth.ChangePassword(ctx, req); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// Bootstrap rehydrates persisted tokens and loads the user. A session the server rejects
// is cleared; other failures keep the tokens. Neither is surfaced as an error.
func (s *Session) Bootstrap(ctx context.Context) (*model.User, error) {
	t, err := s.tokens.LoadPersisted(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted tokens: %w", err)
	}
	if t == nil {
		return nil, nil
	}
	u, err := s.users.Me(ctx)
	if errors.Is(err, errs.ErrAuth) {
		s.log.Info("persisted session rejected", zap.Error(err))
		if cerr := s.tokens.Clear(ctx); cerr != nil {
			s.log.Warn("clear tokens", zap.Error(cerr))
		}
		s.setUser(nil)
		return nil, nil
	}
	if err != nil {
		// Tokens stay persisted; the next start retries.
		s.log.Warn("load user for persisted session", zap.Error(err))
		return nil, nil
	}
	s.applyFallbackBalance(ctx, u)
	s.setUser(u)
	s.runLogin(u)
	return u.Clone(), nil
}
