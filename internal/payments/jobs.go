package payments

import (
	"context"
	"sync"
	"time"

	"pujasetu/internal/escrow"
	"pujasetu/pkg/cache"
	"pujasetu/pkg/logger"
)

// ReleaseSweeper periodically releases escrowed funds whose hold window has
// passed. A Redis lock keeps sweeps from overlapping across instances, and
// a sweep that is still running when the next tick fires is skipped.
type ReleaseSweeper struct {
	service   Service
	repo      escrow.Repository
	lock      *cache.JobLock
	interval  time.Duration
	batchSize int
	log       *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewReleaseSweeper(service Service, repo escrow.Repository, lock *cache.JobLock, interval time.Duration, batchSize int, log *logger.Logger) *ReleaseSweeper {
	return &ReleaseSweeper{
		service:   service,
		repo:      repo,
		lock:      lock,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called.
func (s *ReleaseSweeper) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight sweep.
func (s *ReleaseSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Sweep releases one batch of due records. Each record is processed
// independently: a failure on one is logged and the sweep moves on, since
// the record stays due and the next sweep retries it.
func (s *ReleaseSweeper) Sweep(ctx context.Context) {
	acquired, err := s.lock.TryAcquire(ctx)
	if err != nil {
		s.log.ErrorWithContext(ctx, "release sweep lock error", err, nil)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.log.ErrorWithContext(ctx, "release sweep lock release failed", err, nil)
		}
	}()

	due, err := s.repo.ListDueForRelease(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.log.ErrorWithContext(ctx, "failed to list records due for release", err, nil)
		return
	}

	released := 0
	for _, record := range due {
		if _, err := s.service.ReleaseEscrowFunds(ctx, record.BookingID, "release_sweeper"); err != nil {
			s.log.ErrorWithContext(ctx, "automatic escrow release failed", err, map[string]interface{}{
				"booking_id": record.BookingID.String(),
			})
			continue
		}
		released++
	}

	if len(due) > 0 {
		s.log.InfoWithContext(ctx, "release sweep finished", map[string]interface{}{
			"due":      len(due),
			"released": released,
		})
	}
}
