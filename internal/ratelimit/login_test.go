package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestLoginThrottle(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	storage.now = func() time.Time { return now }

	throttle, err := NewLoginThrottle(storage, 3, time.Minute)
	if err != nil {
		t.Fatalf("NewLoginThrottle() error = %v", err)
	}
	defer throttle.Close()

	for i := 1; i <= 3; i++ {
		allowed, _, err := throttle.Allow(ctx, "alice")
		if err != nil || !allowed {
			t.Fatalf("attempt %d: Allow() = %v, %v; want allowed", i, allowed, err)
		}
		if n, err := throttle.Failure(ctx, "alice"); err != nil || n != int64(i) {
			t.Fatalf("attempt %d: Failure() = %d, %v", i, n, err)
		}
	}

	allowed, retryAfter, err := throttle.Allow(ctx, "alice")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Fatal("Allow() after max failures = true, want false")
	}
	if retryAfter != time.Minute {
		t.Errorf("retryAfter = %s, want %s", retryAfter, time.Minute)
	}

	if allowed, _, _ := throttle.Allow(ctx, "bob"); !allowed {
		t.Error("other identifiers must not be throttled")
	}

	now = now.Add(time.Minute)
	if allowed, _, _ := throttle.Allow(ctx, "alice"); !allowed {
		t.Error("Allow() after window expiry = false, want true")
	}
}

func TestLoginThrottle_SuccessResets(t *testing.T) {
	ctx := context.Background()
	throttle, err := NewLoginThrottle(NewMemoryStorage(), 2, time.Minute)
	if err != nil {
		t.Fatalf("NewLoginThrottle() error = %v", err)
	}
	defer throttle.Close()

	throttle.Failure(ctx, "alice")
	if err := throttle.Success(ctx, "alice"); err != nil {
		t.Fatalf("Success() error = %v", err)
	}
	if n, _ := throttle.Failure(ctx, "alice"); n != 1 {
		t.Errorf("Failure() after reset = %d, want 1", n)
	}
}

func TestNewLoginThrottle_Validation(t *testing.T) {
	if _, err := NewLoginThrottle(nil, 1, time.Minute); err == nil {
		t.Error("expected error for nil storage")
	}
	if _, err := NewLoginThrottle(NewMemoryStorage(), 0, time.Minute); err == nil {
		t.Error("expected error for zero attempts")
	}
	if _, err := NewLoginThrottle(NewMemoryStorage(), 1, 0); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
	}
	storage, err := NewRedisStorage(RedisConfig{Address: addr, KeyPrefix: "academia-test:", Timeout: time.Second})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()
	defer storage.Delete(ctx, "counter")

	v, created, err := storage.IncrementWithExpiry(ctx, "counter", time.Minute)
	if err != nil || v != 1 || !created {
		t.Fatalf("IncrementWithExpiry() = %d, %v, %v; want 1, true, nil", v, created, err)
	}
	v, created, err = storage.IncrementWithExpiry(ctx, "counter", time.Minute)
	if err != nil || v != 2 || created {
		t.Fatalf("IncrementWithExpiry() = %d, %v, %v; want 2, false, nil", v, created, err)
	}

	got, ttl, err := storage.GetWithTTL(ctx, "counter")
	if err != nil || got != 2 {
		t.Fatalf("GetWithTTL() = %d, %s, %v", got, ttl, err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %s, want within (0, 1m]", ttl)
	}

	if got, _, _ := storage.GetWithTTL(ctx, "missing"); got != 0 {
		t.Errorf("GetWithTTL(missing) = %d, want 0", got)
	}
}
