package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobLock provides skip-if-already-running semantics for background sweeps.
// The lock is a single Redis key claimed with SET NX; the TTL bounds how
// long a crashed holder can block the next run.
type JobLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewJobLock creates a lock on the given key.
func NewJobLock(client *redis.Client, key string, ttl time.Duration) *JobLock {
	return &JobLock{client: client, key: key, ttl: ttl}
}

// TryAcquire claims the lock. Returns false when another holder owns it.
func (l *JobLock) TryAcquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Release frees the lock. Safe to call when the lock already expired.
func (l *JobLock) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}
