package storage

import (
	"context"
	"sync"
	"time"
)

type expiringValue struct {
	value     string
	attempts  int
	expiresAt time.Time
}

// MemoryCache is the single-process CacheRepository. Expired entries are
// ignored on read and dropped by Sweep.
type MemoryCache struct {
	mu   sync.Mutex
	now  func() time.Time
	keys map[string]time.Time
	otps map[string]expiringValue
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		now:  time.Now,
		keys: make(map[string]time.Time),
		otps: make(map[string]expiringValue),
	}
}

func (c *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if exp, ok := c.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	c.keys[key] = now.Add(idempotencyKeyTTL)
	return true, nil
}

func (c *MemoryCache) ReleaseIdempotency(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.keys, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) SaveOTP(ctx context.Context, email, otp string, ttl time.Duration) error {
	c.mu.Lock()
	c.otps[email] = expiringValue{value: otp, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) ConsumeOTP(ctx context.Context, email, otp string, maxAttempts int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.otps[email]
	if !ok {
		return false, nil
	}
	if !c.now().Before(stored.expiresAt) {
		delete(c.otps, email)
		return false, nil
	}
	if stored.value != otp {
		stored.attempts++
		if stored.attempts >= maxAttempts {
			delete(c.otps, email)
		} else {
			c.otps[email] = stored
		}
		return false, nil
	}
	delete(c.otps, email)
	return true, nil
}

// Sweep drops expired entries.
func (c *MemoryCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, exp := range c.keys {
		if !now.Before(exp) {
			delete(c.keys, k)
		}
	}
	for k, v := range c.otps {
		if !now.Before(v.expiresAt) {
			delete(c.otps, k)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (c *MemoryCache) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
