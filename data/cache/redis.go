package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/utils"
	"github.com/redis/go-redis/v9"
)

const (
	propertyKeyPrefix = "property:"
	propertyListKey   = "properties"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) SetProperties(ctx context.Context, properties []model.PropertyDetails) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("start SetProperties", slog.String("rqID", rqID))

	pipe := r.redis.Pipeline()
	for _, property := range properties {
		propertyJson, err := json.Marshal(property)
		if err != nil {
			slog.Error(
				"can't marshal property in SetProperties",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.Any("property", property),
			)
			return errors.New("can't marshal property")
		}

		pipe.Set(ctx, propertyKeyPrefix+property.Property.PropertyRef, propertyJson, r.cfg.Cache.PropertiesExpiration)
	}

	listJson, err := json.Marshal(properties)
	if err != nil {
		slog.Error("can't marshal property list", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return errors.New("can't marshal property list")
	}
	pipe.Set(ctx, propertyListKey, listJson, r.cfg.Cache.PropertiesExpiration)

	_, err = pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetProperties completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetProperty(ctx context.Context, propertyRef string) (model.PropertyDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	res, err := r.redis.Get(ctx, propertyKeyPrefix+propertyRef).Result()
	if err != nil {
		return model.PropertyDetails{}, err
	}

	details := model.PropertyDetails{}
	err = json.Unmarshal([]byte(res), &details)
	if err != nil {
		slog.Error(
			"can't unmarshal property in GetProperty",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return model.PropertyDetails{}, errors.New("can't unmarshal property")
	}

	return details, nil
}

func (r *RedisCache) GetProperties(ctx context.Context) ([]model.PropertyDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	res, err := r.redis.Get(ctx, propertyListKey).Result()
	if err != nil {
		return nil, err
	}

	var properties []model.PropertyDetails
	err = json.Unmarshal([]byte(res), &properties)
	if err != nil {
		slog.Error("can't unmarshal property list", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, errors.New("can't unmarshal property list")
	}

	return properties, nil
}
