package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/langqc-backend/internal/clients/redis"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

type Clients struct {
	Redis       *goredis.Client
	ClaimLocker *redis.ClaimLocker
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis is optional; without it claims rely on the unique constraint alone.
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return Clients{}, nil
	}
	rdb, err := redis.NewClient(ctx, cfg.RedisAddr, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	return Clients{
		Redis:       rdb,
		ClaimLocker: redis.NewClaimLocker(rdb, cfg.ClaimLockTTL, log),
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
