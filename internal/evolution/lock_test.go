package evolution

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryLocker_acquire_and_release(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "doc-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v", ok, err)
	}
	ok, err = l.Acquire(ctx, "doc-1", time.Minute)
	if err != nil {
		t.Fatalf("second acquire errored: %v", err)
	}
	if ok {
		t.Error("held lock should not be re-acquirable")
	}

	// A different document is unaffected.
	if ok, _ := l.Acquire(ctx, "doc-2", time.Minute); !ok {
		t.Error("independent document should lock")
	}

	if err := l.Release(ctx, "doc-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := l.Acquire(ctx, "doc-1", time.Minute); !ok {
		t.Error("released lock should be acquirable")
	}
}

func TestMemoryLocker_ttl_expiry(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "doc-1", 10*time.Millisecond); !ok {
		t.Fatal("initial acquire failed")
	}
	time.Sleep(20 * time.Millisecond)
	if ok, _ := l.Acquire(ctx, "doc-1", time.Minute); !ok {
		t.Error("expired lock should be acquirable")
	}
}

func TestMemoryLocker_release_unheld_is_noop(t *testing.T) {
	l := NewMemoryLocker()
	if err := l.Release(context.Background(), "never-locked"); err != nil {
		t.Errorf("release of unheld lock: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}

func TestFormatLockKey(t *testing.T) {
	if got := FormatLockKey("doc-7"); got != "evolve:doc-7" {
		t.Errorf("FormatLockKey = %q", got)
	}
}

// --- RedisLocker ---

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client), mr
}

func TestRedisLocker_acquire_and_release(t *testing.T) {
	l, _ := newRedisLocker(t)
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "doc-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v", ok, err)
	}
	if ok, _ := l.Acquire(ctx, "doc-1", time.Minute); ok {
		t.Error("held lock should not be re-acquirable")
	}
	if ok, _ := l.Acquire(ctx, "doc-2", time.Minute); !ok {
		t.Error("independent document should lock")
	}

	if err := l.Release(ctx, "doc-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := l.Acquire(ctx, "doc-1", time.Minute); !ok {
		t.Error("released lock should be acquirable")
	}
}

func TestRedisLocker_ttl_expiry(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "doc-1", time.Second); !ok {
		t.Fatal("initial acquire failed")
	}
	mr.FastForward(2 * time.Second)
	if ok, _ := l.Acquire(ctx, "doc-1", time.Minute); !ok {
		t.Error("expired lock should be acquirable")
	}
}

func TestRedisLocker_health_check(t *testing.T) {
	l, mr := newRedisLocker(t)
	if err := l.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	mr.Close()
	if err := l.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck after server close should fail")
	}
}
