package evolution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker serializes evolutions per document. Acquire returns false
// without error when the lock is already held.
type Locker interface {
	Acquire(ctx context.Context, documentID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, documentID string) error
}

// FormatLockKey builds the standard lock key for a document.
func FormatLockKey(documentID string) string {
	return fmt.Sprintf("evolve:%s", documentID)
}

// --- MemoryLocker ---

// MemoryLocker is an in-process Locker with TTL support. Suitable for
// testing and single-instance deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewMemoryLocker creates a new in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]time.Time)}
}

// Acquire takes the lock unless an unexpired holder exists.
func (l *MemoryLocker) Acquire(_ context.Context, documentID string, ttl time.Duration) (bool, error) {
	key := FormatLockKey(documentID)
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.locks[key]; held && now.Before(expiry) {
		return false, nil
	}
	l.locks[key] = now.Add(ttl)
	return true, nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *MemoryLocker) Release(_ context.Context, documentID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, FormatLockKey(documentID))
	return nil
}

// Len returns the number of entries (including expired ones). For testing.
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// --- RedisLocker ---

// RedisLocker is a Redis-backed Locker using SET NX with TTL, for
// multi-instance deployments sharing one document store.
type RedisLocker struct {
	client redis.Cmdable
}

// NewRedisLocker creates a new Redis-backed locker.
func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire takes the lock via SET NX.
func (l *RedisLocker) Acquire(ctx context.Context, documentID string, ttl time.Duration) (bool, error) {
	key := FormatLockKey(documentID)
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %q: %w", key, err)
	}
	return ok, nil
}

// Release deletes the lock key.
func (l *RedisLocker) Release(ctx context.Context, documentID string) error {
	key := FormatLockKey(documentID)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// HealthCheck pings the Redis server.
func (l *RedisLocker) HealthCheck(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
