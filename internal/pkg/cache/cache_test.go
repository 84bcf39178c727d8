package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisTier(t *testing.T) (*Tier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTier(rdb, zap.NewNop()), mr
}

func TestTierRedisRoundTrip(t *testing.T) {
	tier, _ := newRedisTier(t)
	ctx := context.Background()

	_, ok := tier.Get(ctx, "missing")
	assert.False(t, ok)

	tier.Set(ctx, "summary:abc", `{"id":"abc"}`, time.Hour)
	val, ok := tier.Get(ctx, "summary:abc")
	require.True(t, ok)
	assert.Equal(t, `{"id":"abc"}`, val)
	assert.Equal(t, ModeRedis, tier.Mode())
}

func TestTierDeletePrefix(t *testing.T) {
	tier, _ := newRedisTier(t)
	ctx := context.Background()

	tier.Set(ctx, "summaries:u1:limit:10|page:1", "a", time.Hour)
	tier.Set(ctx, "summaries:u2:limit:10|page:1", "b", time.Hour)
	tier.Set(ctx, "summary:abc", "c", time.Hour)

	removed := tier.DeletePrefix(ctx, "summaries:")
	assert.Equal(t, 2, removed)

	_, ok := tier.Get(ctx, "summaries:u1:limit:10|page:1")
	assert.False(t, ok)
	_, ok = tier.Get(ctx, "summary:abc")
	assert.True(t, ok)
}

func TestTierDegradesToLocalOnRedisFailure(t *testing.T) {
	tier, mr := newRedisTier(t)
	ctx := context.Background()

	tier.Set(ctx, "k1", "v1", time.Hour)
	require.Equal(t, ModeRedis, tier.Mode())

	mr.Close()

	// First op after the outage flips the tier; the value written to redis
	// is gone but the tier keeps serving without errors.
	_, ok := tier.Get(ctx, "k1")
	assert.False(t, ok)
	assert.Equal(t, ModeLocal, tier.Mode())

	tier.Set(ctx, "k2", "v2", time.Hour)
	val, ok := tier.Get(ctx, "k2")
	require.True(t, ok)
	assert.Equal(t, "v2", val)
}

func TestTierStaysLocalAfterDegrade(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	tier := NewTier(rdb, zap.NewNop())
	ctx := context.Background()

	mr.Close()
	tier.Set(ctx, "k", "v", time.Hour)
	require.Equal(t, ModeLocal, tier.Mode())

	// Even if redis comes back, the flip is one-way.
	mr2, err := miniredis.Run()
	require.NoError(t, err)
	defer mr2.Close()

	tier.Set(ctx, "k2", "v2", time.Hour)
	assert.Equal(t, ModeLocal, tier.Mode())
}

func TestNilClientStartsLocal(t *testing.T) {
	tier := NewTier(nil, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, ModeLocal, tier.Mode())
	tier.Set(ctx, "k", "v", time.Hour)
	val, ok := tier.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestLocalStoreFIFOEviction(t *testing.T) {
	s := newLocalStore(3)

	s.set("a", "1", 0)
	s.set("b", "2", 0)
	s.set("c", "3", 0)

	// Reading "a" must not protect it from eviction.
	_, ok := s.get("a")
	require.True(t, ok)

	s.set("d", "4", 0)
	_, ok = s.get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	for _, k := range []string{"b", "c", "d"} {
		_, ok := s.get(k)
		assert.True(t, ok, k)
	}
}

func TestLocalStoreUpdateKeepsInsertionOrder(t *testing.T) {
	s := newLocalStore(2)

	s.set("a", "1", 0)
	s.set("b", "2", 0)
	s.set("a", "1b", 0) // overwrite, "a" stays oldest

	s.set("c", "3", 0)
	_, ok := s.get("a")
	assert.False(t, ok)
	val, ok := s.get("b")
	require.True(t, ok)
	assert.Equal(t, "2", val)
	assert.Equal(t, 2, s.len())
}

func TestLocalStoreLazyExpiry(t *testing.T) {
	s := newLocalStore(10)

	s.set("short", "v", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := s.get("short")
	assert.False(t, ok)
	assert.Equal(t, 0, s.len())
}

func TestLocalStoreDeletePrefix(t *testing.T) {
	s := newLocalStore(10)

	for i := 0; i < 4; i++ {
		s.set(fmt.Sprintf("summaries:u%d", i), "v", 0)
	}
	s.set("summary:x", "v", 0)

	assert.Equal(t, 4, s.deletePrefix("summaries:"))
	assert.Equal(t, 0, s.deletePrefix("summaries:"))
	assert.Equal(t, 1, s.len())
}

func TestTierConcurrentAccess(t *testing.T) {
	tier := NewTier(nil, zap.NewNop())
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%20)
				tier.Set(ctx, key, "v", time.Minute)
				tier.Get(ctx, key)
				if j%50 == 0 {
					tier.DeletePrefix(ctx, "k1")
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
