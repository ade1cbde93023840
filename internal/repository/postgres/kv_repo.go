package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/repository"
	"github.com/jackc/pgx/v5"
)

// KVRepo implements repository.KV on the session_kv table, one namespace per client session.
type KVRepo struct {
	db        *DB
	namespace string
}

var _ repository.KV = (*KVRepo)(nil)

// NewKVRepo constructs a store bound to namespace.
func NewKVRepo(db *DB, namespace string) *KVRepo { return &KVRepo{db: db, namespace: namespace} }

// Get selects a value by key.
func (r *KVRepo) Get(ctx context.Context, key string) (string, error) {
	const q = `
SELECT value FROM session_kv
WHERE namespace=$1 AND key=$2`
	var v string
	if err := r.db.Pool.QueryRow(ctx, q, r.namespace, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.ErrNotFound
		}
		return "", fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, nil
}

// Set upserts a value.
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO session_kv (namespace, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, key)
DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := r.db.Pool.Exec(ctx, q, r.namespace, key, value); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Delete removes the given keys in one statement.
func (r *KVRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `
DELETE FROM session_kv
WHERE namespace=$1 AND key = ANY($2)`
	if _, err := r.db.Pool.Exec(ctx, q, r.namespace, keys); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}
