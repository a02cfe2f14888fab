package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pujasetu/pkg/cache"
)

// Operation names the financial actions keyed for idempotent replay.
type Operation string

const (
	OperationCreatePayment Operation = "create_payment"
	OperationRelease       Operation = "release_escrow"
	OperationRefund        Operation = "cancellation_refund"
)

// IdempotencyStore remembers the outcome of a financial operation per
// booking so a retried request returns the stored result instead of hitting
// the processor again. Keys derive from (booking, operation): a booking has
// at most one advance payment, one release, and one cancellation refund.
type IdempotencyStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewIdempotencyStore(cacheService cache.Service, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{cache: cacheService, ttl: ttl}
}

// Key builds the cache key, also forwarded to the processor as its
// idempotency key.
func (s *IdempotencyStore) Key(bookingID uuid.UUID, operation Operation) string {
	return fmt.Sprintf("pujasetu:idempotency:%s:%s", bookingID, operation)
}

// Get loads a stored outcome into dest. Returns (false, nil) on a miss.
func (s *IdempotencyStore) Get(ctx context.Context, bookingID uuid.UUID, operation Operation, dest interface{}) (bool, error) {
	err := s.cache.Get(ctx, s.Key(bookingID, operation), dest)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read idempotency record: %w", err)
	}
	return true, nil
}

// Save stores the outcome of a completed operation.
func (s *IdempotencyStore) Save(ctx context.Context, bookingID uuid.UUID, operation Operation, result interface{}) error {
	if err := s.cache.Set(ctx, s.Key(bookingID, operation), result, s.ttl); err != nil {
		return fmt.Errorf("failed to save idempotency record: %w", err)
	}
	return nil
}
