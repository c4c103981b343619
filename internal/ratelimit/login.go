// Package ratelimit throttles repeated failed logins per identifier.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// LoginThrottle counts failed logins per identifier in a fixed window that
// starts at the first failure. Once MaxAttempts failures are recorded the
// identifier is blocked until the window expires.
type LoginThrottle struct {
	storage     Storage
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle creates a throttle over storage.
func NewLoginThrottle(storage Storage, maxAttempts int, window time.Duration) (*LoginThrottle, error) {
	if storage == nil {
		return nil, fmt.Errorf("throttle storage is required")
	}
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	return &LoginThrottle{storage: storage, maxAttempts: int64(maxAttempts), window: window}, nil
}

func key(identifier string) string {
	return "login:" + identifier
}

// Allow reports whether identifier may attempt a login. When it may not,
// retryAfter is the time left in the current window.
func (t *LoginThrottle) Allow(ctx context.Context, identifier string) (allowed bool, retryAfter time.Duration, err error) {
	count, ttl, err := t.storage.GetWithTTL(ctx, key(identifier))
	if err != nil {
		return false, 0, err
	}
	if count >= t.maxAttempts {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Failure records a failed login and returns the failures in the current window.
func (t *LoginThrottle) Failure(ctx context.Context, identifier string) (int64, error) {
	count, _, err := t.storage.IncrementWithExpiry(ctx, key(identifier), t.window)
	return count, err
}

// Success clears the failures recorded for identifier.
func (t *LoginThrottle) Success(ctx context.Context, identifier string) error {
	return t.storage.Delete(ctx, key(identifier))
}

// Close releases the storage.
func (t *LoginThrottle) Close() error {
	return t.storage.Close()
}
