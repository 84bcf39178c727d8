package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Mode identifies the active cache tier.
type Mode int

const (
	// ModeRedis serves reads and writes from the shared redis instance.
	ModeRedis Mode = iota
	// ModeLocal serves them from the in-process store. Once a tier enters
	// ModeLocal it never returns to redis for the lifetime of the process.
	ModeLocal
)

func (m Mode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "redis"
}

const (
	// opTimeout bounds every individual redis operation.
	opTimeout = 3 * time.Second
	// localCapacity is the entry cap of the in-process store.
	localCapacity = 1000

	deleteScanCount = 200
)

// Tier is a two-level cache: redis while it is healthy, then a bounded
// in-process FIFO store after the first redis failure. Cache operations
// never return errors; a miss and a failure look the same to the caller.
type Tier struct {
	logger *zap.Logger

	mu    sync.Mutex
	mode  Mode
	rdb   *redis.Client
	local *localStore
}

// NewTier builds a Tier. A nil redis client starts the tier in ModeLocal.
func NewTier(rdb *redis.Client, logger *zap.Logger) *Tier {
	t := &Tier{
		logger: logger,
		rdb:    rdb,
		local:  newLocalStore(localCapacity),
	}
	if rdb == nil {
		t.mode = ModeLocal
		logger.Warn("cache starting without redis, using in-memory store")
	}
	return t
}

// Mode reports the active tier.
func (t *Tier) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Get returns the cached value for key and whether it was present.
func (t *Tier) Get(ctx context.Context, key string) (string, bool) {
	if t.activeMode() == ModeLocal {
		return t.local.get(key)
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := t.rdb.Get(opCtx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		t.degrade("get", err)
		return t.local.get(key)
	}
	return val, true
}

// Set stores value under key with the given TTL.
func (t *Tier) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if t.activeMode() == ModeLocal {
		t.local.set(key, value, ttl)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := t.rdb.Set(opCtx, key, value, ttl).Err(); err != nil {
		t.degrade("set", err)
		t.local.set(key, value, ttl)
	}
}

// Delete removes a single key.
func (t *Tier) Delete(ctx context.Context, key string) {
	if t.activeMode() == ModeLocal {
		t.local.delete(key)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := t.rdb.Del(opCtx, key).Err(); err != nil {
		t.degrade("delete", err)
		t.local.delete(key)
	}
}

// DeletePrefix removes every key starting with prefix and returns how many
// keys were removed.
func (t *Tier) DeletePrefix(ctx context.Context, prefix string) int {
	if t.activeMode() == ModeLocal {
		return t.local.deletePrefix(prefix)
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	removed := 0
	var cursor uint64
	for {
		keys, next, err := t.rdb.Scan(opCtx, cursor, prefix+"*", deleteScanCount).Result()
		if err != nil {
			t.degrade("scan", err)
			return removed + t.local.deletePrefix(prefix)
		}
		if len(keys) > 0 {
			n, err := t.rdb.Del(opCtx, keys...).Result()
			if err != nil {
				t.degrade("delete", err)
				return removed + t.local.deletePrefix(prefix)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return removed
}

func (t *Tier) activeMode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// degrade flips the tier to the in-process store. The flip is one-way.
func (t *Tier) degrade(op string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode == ModeLocal {
		return
	}
	t.mode = ModeLocal
	t.logger.Warn("redis unavailable, switching cache to in-memory store",
		zap.String("op", op),
		zap.Error(err))
}

type localEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// localStore is an insertion-ordered bounded map. When the store is full
// the oldest inserted entry is evicted, regardless of access recency.
type localStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]localEntry
}

func newLocalStore(capacity int) *localStore {
	return &localStore{
		capacity: capacity,
		entries:  make(map[string]localEntry, capacity),
	}
}

func (s *localStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.remove(key)
		return "", false
	}
	return e.value, true
}

func (s *localStore) set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if _, exists := s.entries[key]; exists {
		s.entries[key] = localEntry{key: key, value: value, expiresAt: expiresAt}
		return
	}

	if len(s.entries) >= s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.remove(oldest)
	}

	s.entries[key] = localEntry{key: key, value: value, expiresAt: expiresAt}
	s.order = append(s.order, key)
}

func (s *localStore) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(key)
}

func (s *localStore) deletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.remove(key)
			removed++
		}
	}
	return removed
}

func (s *localStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// remove expects the caller to hold s.mu.
func (s *localStore) remove(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
