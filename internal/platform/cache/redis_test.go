package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), srv
}

func TestFetchJSONPopulatesAndHits(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"qty": 42}, nil
	}

	var first map[string]int
	require.NoError(t, c.FetchJSON(ctx, "stock:p1", &first, loader))
	require.Equal(t, 42, first["qty"])
	require.Equal(t, 1, calls)

	var second map[string]int
	require.NoError(t, c.FetchJSON(ctx, "stock:p1", &second, loader))
	require.Equal(t, 42, second["qty"])
	require.Equal(t, 1, calls, "second fetch must come from cache")
}

func TestInvalidateForcesReload(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	var got int
	require.NoError(t, c.FetchJSON(ctx, "stock:p2", &got, loader))
	require.Equal(t, 1, got)

	require.NoError(t, c.Invalidate(ctx, "stock:p2"))

	require.NoError(t, c.FetchJSON(ctx, "stock:p2", &got, loader))
	require.Equal(t, 2, got)
}

func TestNilClientPassesThrough(t *testing.T) {
	c := NewCache(nil, time.Minute)
	var got int
	require.NoError(t, c.FetchJSON(context.Background(), "k", &got, func(context.Context) (any, error) {
		return 7, nil
	}))
	require.Equal(t, 7, got)
}
