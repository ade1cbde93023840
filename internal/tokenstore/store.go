// Package tokenstore holds the current credential pair in memory, mirrored to a durable KV.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
	"github.com/and161185/imageshop/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Store is the single source of truth for "am I authenticated".
// The pair is always replaced as a whole; readers never see a half-written pair.
type Store struct {
	wmu sync.Mutex // serializes writers so memory and durable copies agree

	mu  sync.RWMutex
	cur *model.Tokens

	kv  repository.KV
	log *zap.Logger
}

// New constructs a Store over kv.
func New(kv repository.KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log}
}

// Get returns a copy of the current pair, or nil when unauthenticated.
func (s *Store) Get() *model.Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil
	}
	c := *s.cur
	return &c
}

// AccessToken returns the current access token or "".
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return ""
	}
	return s.cur.AccessToken
}

// Set replaces the pair in memory and in the durable store.
// nil (or a pair without an access token) removes both durable keys.
func (s *Store) Set(ctx context.Context, t *model.Tokens) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	var next *model.Tokens
	if t.Valid() {
		c := *t
		if c.ExpiresAt.IsZero() {
			c.ExpiresAt = Expiry(c.AccessToken)
		}
		next = &c
	}

	s.mu.Lock()
	s.cur = next
	s.mu.Unlock()

	if next == nil {
		if err := s.kv.Delete(ctx, repository.KeyAccessToken, repository.KeyRefreshToken); err != nil {
			return fmt.Errorf("clear persisted tokens: %w", err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, repository.KeyAccessToken, next.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if next.RefreshToken == "" {
		err := s.kv.Delete(ctx, repository.KeyRefreshToken)
		if err != nil {
			return fmt.Errorf("clear persisted refresh token: %w", err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, repository.KeyRefreshToken, next.RefreshToken); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// Clear is Set(ctx, nil).
func (s *Store) Clear(ctx context.Context) error { return s.Set(ctx, nil) }

// LoadPersisted rehydrates memory from the durable store. Returns nil when nothing is stored.
func (s *Store) LoadPersisted(ctx context.Context) (*model.Tokens, error) {
	access, err := s.kv.Get(ctx, repository.KeyAccessToken)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load access token: %w", err)
	}
	refresh, err := s.kv.Get(ctx, repository.KeyRefreshToken)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if access == "" {
		return nil, nil
	}
	t := &model.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: Expiry(access)}

	s.wmu.Lock()
	s.mu.Lock()
	s.cur = t
	s.mu.Unlock()
	s.wmu.Unlock()

	s.log.Debug("tokens rehydrated", zap.Bool("has_refresh", refresh != ""), zap.Time("expires_at", t.ExpiresAt))
	c := *t
	return &c, nil
}

// Expiry reads the unverified exp claim of a JWT access token; zero if absent or opaque.
func Expiry(access string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
