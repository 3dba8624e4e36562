package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/propshare/checkout/config"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// NewRedisClient connects the client backing the checkout session store and
// the property cache. Startup fails hard when Redis is unreachable: without
// it no checkout session can exist.
func NewRedisClient(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: "checkout",
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("failed on redis.Ping", slog.String("err", err.Error()))
		panic(err)
	}
	slog.Info("redis connected", slog.String("addr", rdb.Options().Addr), slog.Int("db", cfg.Redis.DB))

	return rdb
}
