package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	failOn string
	dels   [][]string
}

var _ Cmdable = (*fakeRedis)(nil)

func newFake() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failOn == "get" {
		return redis.NewStringResult("", errors.New("boom"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	if f.failOn == "set" {
		return redis.NewStatusResult("", errors.New("boom"))
	}
	f.data[key] = value.(string)
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.dels = append(f.dels, keys)
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestStore_Namespacing(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	a := New(f, "tab-a", time.Hour)
	b := New(f, "tab-b", 0)

	require.NoError(t, a.Set(ctx, "imageshop_access_token", "A"))
	require.NoError(t, b.Set(ctx, "imageshop_access_token", "B"))
	require.Equal(t, "A", f.data["imageshop:tab-a:imageshop_access_token"])
	require.Equal(t, time.Hour, f.ttls["imageshop:tab-a:imageshop_access_token"])

	v, err := b.Get(ctx, "imageshop_access_token")
	require.NoError(t, err)
	require.Equal(t, "B", v)

	require.NoError(t, a.Delete(ctx, "imageshop_access_token", "imageshop_refresh_token"))
	_, err = a.Get(ctx, "imageshop_access_token")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, []string{"imageshop:tab-a:imageshop_access_token", "imageshop:tab-a:imageshop_refresh_token"}, f.dels[0])

	require.NoError(t, a.Delete(ctx))
	require.Len(t, f.dels, 1)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFake()
	s := New(f, "ns", 0)

	f.failOn = "get"
	_, err := s.Get(ctx, "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrNotFound)

	f.failOn = "set"
	require.Error(t, s.Set(ctx, "k", "v"))
}
