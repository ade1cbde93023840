package repository

import (
	"context"
	"testing"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, KeyAccessToken)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, m.Set(ctx, KeyAccessToken, "a"))
	require.NoError(t, m.Set(ctx, KeyRefreshToken, "r"))
	v, err := m.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "a", v)

	require.NoError(t, m.Delete(ctx, KeyAccessToken, KeyRefreshToken, "missing"))
	require.Equal(t, 0, m.Len())
}

func TestFallbackKeys(t *testing.T) {
	t.Parallel()
	require.Equal(t, "imageshop_fake_balance_u1", FallbackBalanceKey("u1"))
	require.Equal(t, "imageshop_fake_purchases_u1", FallbackPurchasesKey("u1"))
}
