// Package repository defines the durable key-value store used for client-side session state.
package repository

import (
	"context"
	"sync"

	"github.com/and161185/imageshop/internal/errs"
)

// Fixed key names and per-user prefixes.
const (
	KeyAccessToken  = "imageshop_access_token"
	KeyRefreshToken = "imageshop_refresh_token"

	PrefixFallbackBalance   = "imageshop_fake_balance_"
	PrefixFallbackPurchases = "imageshop_fake_purchases_"
)

// FallbackBalanceKey scopes the simulated balance to a user id.
func FallbackBalanceKey(userID string) string { return PrefixFallbackBalance + userID }

// FallbackPurchasesKey scopes the simulated purchased-id set to a user id.
func FallbackPurchasesKey(userID string) string { return PrefixFallbackPurchases + userID }

// KV is a durable string store scoped to one client session ("tab").
type KV interface {
	// Get returns the value or errs.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set overwrites the value.
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Memory is an in-process KV. It is the per-tab store when no durable backend is configured.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ KV = (*Memory)(nil)

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory { return &Memory{data: map[string]string{}} }

// Get returns the value or errs.ErrNotFound.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// Set overwrites the value.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

// Delete removes keys.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.mu.Unlock()
	return nil
}

// Len is the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
