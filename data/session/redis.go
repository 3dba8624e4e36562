package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/utils"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "checkout:"

type RedisSession struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisSession(redisClient *redis.Client, cfg *config.Config) *RedisSession {
	return &RedisSession{redis: redisClient, cfg: cfg}
}

func (r *RedisSession) GetSession(ctx context.Context, key string) (model.CheckoutSession, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	res, err := r.redis.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.CheckoutSession{}, ErrNotFound
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return model.CheckoutSession{}, err
	}

	sess := model.CheckoutSession{}
	err = json.Unmarshal([]byte(res), &sess)
	if err != nil {
		slog.Error(
			"can't unmarshal checkout session",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return model.CheckoutSession{}, fmt.Errorf("unmarshal checkout session: %w", err)
	}

	return sess, nil
}

func (r *RedisSession) SetSession(ctx context.Context, key string, sess model.CheckoutSession) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	sessJson, err := json.Marshal(sess)
	if err != nil {
		slog.Error("can't marshal checkout session", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return fmt.Errorf("marshal checkout session: %w", err)
	}

	_, err = r.redis.Set(ctx, keyPrefix+key, sessJson, r.cfg.SessionExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return err
	}

	return nil
}
