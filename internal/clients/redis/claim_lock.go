package redis

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type ClaimLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewClaimLocker(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *ClaimLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &ClaimLocker{
		locker: redislock.New(rdb),
		ttl:    ttl,
		log:    log.With("client", "RedisClaimLocker"),
	}
}

func (l *ClaimLocker) Lock(ctx context.Context, key string) (func(), bool, error) {
	noop := func() {}
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.log.Warn("could not obtain claim lock", "key", key)
		return noop, false, nil
	}
	if err != nil {
		return noop, false, err
	}
	return func() {
		// The ttl reclaims the key if release fails.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn("release claim lock failed", "key", key, "error", err)
		}
	}, true, nil
}
