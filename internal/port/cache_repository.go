package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency removes a key so the request can be retried
	ReleaseIdempotency(ctx context.Context, key string) error

	// SaveOTP stores the code for email, replacing any previous one
	SaveOTP(ctx context.Context, email, otp string, ttl time.Duration) error

	// ConsumeOTP deletes and returns true if the stored, unexpired code matches.
	// A mismatch counts as a failed attempt; after maxAttempts failures the
	// code is deleted and a new one must be requested.
	ConsumeOTP(ctx context.Context, email, otp string, maxAttempts int) (bool, error)
}
