package placements

import (
	"context"
	"sync"
	"time"

	"pujasetu/pkg/cache"
	"pujasetu/pkg/logger"
)

// Sweeper runs the expiry and reminder sweeps on a fixed interval. A Redis
// lock gives skip-if-already-running semantics across instances: reversing
// a ranking delta twice would corrupt search ranking.
type Sweeper struct {
	service        Service
	lock           *cache.JobLock
	interval       time.Duration
	reminderWindow time.Duration
	batchSize      int
	log            *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(service Service, lock *cache.JobLock, interval, reminderWindow time.Duration, batchSize int, log *logger.Logger) *Sweeper {
	return &Sweeper{
		service:        service,
		lock:           lock,
		interval:       interval,
		reminderWindow: reminderWindow,
		batchSize:      batchSize,
		log:            log,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
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
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// Sweep runs one expiry pass and one reminder pass under the shared lock.
func (s *Sweeper) Sweep(ctx context.Context) {
	acquired, err := s.lock.TryAcquire(ctx)
	if err != nil {
		s.log.ErrorWithContext(ctx, "placement sweep lock error", err, nil)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.log.ErrorWithContext(ctx, "placement sweep lock release failed", err, nil)
		}
	}()

	now := time.Now()

	expired, err := s.service.ExpireDue(ctx, now, s.batchSize)
	if err != nil {
		s.log.ErrorWithContext(ctx, "placement expiry sweep failed", err, nil)
	}

	reminded, err := s.service.SendReminders(ctx, now, s.reminderWindow, s.batchSize)
	if err != nil {
		s.log.ErrorWithContext(ctx, "placement reminder sweep failed", err, nil)
	}

	if expired > 0 || reminded > 0 {
		s.log.InfoWithContext(ctx, "placement sweep finished", map[string]interface{}{
			"expired":  expired,
			"reminded": reminded,
		})
	}
}
