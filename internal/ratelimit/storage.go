package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Storage holds expiring counters shared by limiter instances.
type Storage interface {
	// IncrementWithExpiry increments the counter and sets expiry if it's a new key.
	// Returns the new value and whether the key was newly created.
	IncrementWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, bool, error)

	// GetWithTTL retrieves the value and remaining TTL for a key.
	// Returns 0 for missing or expired keys.
	GetWithTTL(ctx context.Context, key string) (int64, time.Duration, error)

	// Delete removes the key from storage
	Delete(ctx context.Context, key string) error

	// Close closes the storage connection and cleans up resources
	Close() error

	// Health returns the health status of the storage backend
	Health() map[string]interface{}
}

// MemoryStorage implements Storage in process memory
type MemoryStorage struct {
	data    map[string]*memoryEntry
	mu      sync.RWMutex
	stopCh  chan struct{}
	stopped bool
	now     func() time.Time
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time
	hasExpiry bool
}

func (e *memoryEntry) expired(now time.Time) bool {
	return e.hasExpiry && !now.Before(e.expiresAt)
}

// NewMemoryStorage creates a new in-memory storage backend
func NewMemoryStorage() *MemoryStorage {
	ms := &MemoryStorage{
		data:   make(map[string]*memoryEntry),
		stopCh: make(chan struct{}),
		now:    time.Now,
	}

	go ms.cleanupExpired()

	return ms
}

// IncrementWithExpiry increments the counter and sets expiry if it's a new key
func (ms *MemoryStorage) IncrementWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	entry, exists := ms.data[key]
	if !exists || entry.expired(now) {
		ms.data[key] = &memoryEntry{
			value:     1,
			expiresAt: now.Add(expiry),
			hasExpiry: expiry > 0,
		}
		return 1, true, nil
	}

	entry.value++
	return entry.value, false, nil
}

// GetWithTTL retrieves the value and remaining TTL for a key
func (ms *MemoryStorage) GetWithTTL(ctx context.Context, key string) (int64, time.Duration, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := ms.now()
	entry, exists := ms.data[key]
	if !exists || entry.expired(now) {
		return 0, 0, nil
	}

	var ttl time.Duration
	if entry.hasExpiry {
		ttl = entry.expiresAt.Sub(now)
	}
	return entry.value, ttl, nil
}

// Delete removes the key from storage
func (ms *MemoryStorage) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.data, key)
	return nil
}

// Close stops the cleanup goroutine and drops all counters
func (ms *MemoryStorage) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.stopped {
		close(ms.stopCh)
		ms.stopped = true
	}
	ms.data = make(map[string]*memoryEntry)
	return nil
}

// Health returns the health status of the memory storage
func (ms *MemoryStorage) Health() map[string]interface{} {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return map[string]interface{}{
		"status":     "healthy",
		"type":       "memory",
		"keys_count": len(ms.data),
	}
}

// cleanupExpired removes expired entries periodically
func (ms *MemoryStorage) cleanupExpired() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.performCleanup()
		case <-ms.stopCh:
			return
		}
	}
}

func (ms *MemoryStorage) performCleanup() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	for key, entry := range ms.data {
		if entry.expired(now) {
			delete(ms.data, key)
		}
	}
}
