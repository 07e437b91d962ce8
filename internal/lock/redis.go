package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/reconerr"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Redis obtains locks through redislock. Locks expire after ttl so a
// crashed holder cannot wedge a session.
type Redis struct {
	locker *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	logger logging.Logger
}

var _ Locker = (*Redis)(nil)

// NewRedisClient connects to the Redis server at addr.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// NewRedis creates a Redis locker over client.
func NewRedis(client redislock.RedisClient, ttl time.Duration, logger logging.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{
		locker: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(ttl/(50*time.Millisecond))),
		logger: logging.OrDefault(logger),
	}
}

// Lock implements Locker.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	l, err := r.locker.Obtain(ctx, key, r.ttl, &redislock.Options{RetryStrategy: r.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, notObtained(key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func() {
		// Release with a fresh context: the caller's may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.WithError(err).Warn("Failed to release lock", logging.F(logging.FieldReason, key))
		}
	}, nil
}

func notObtained(key string, cause error) error {
	return &reconerr.ConflictError{Entity: "lock", ID: key, Reason: fmt.Sprintf("not obtained: %v", cause)}
}
