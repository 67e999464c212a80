package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/careportal/complaint-service/internal/domain"
)

const slaCacheKey = "complaint:sla-settings:active"

// cachedSLASettingRepository is a read-through Redis cache in front of the
// SLA settings table. Settings are read on every ticket creation and change
// rarely; staleness is bounded by the TTL. Any cache failure degrades to a
// direct read.
type cachedSLASettingRepository struct {
	inner  SLASettingRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSLASettingRepository wraps inner with a Redis cache.
func NewCachedSLASettingRepository(inner SLASettingRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) SLASettingRepository {
	if client == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedSLASettingRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *cachedSLASettingRepository) ListActive(ctx context.Context) ([]domain.SLASetting, error) {
	raw, err := r.client.Get(ctx, slaCacheKey).Result()
	if err == nil {
		var settings []domain.SLASetting
		if unmarshalErr := json.Unmarshal([]byte(raw), &settings); unmarshalErr == nil {
			return settings, nil
		}
		r.logger.Warn("discarding corrupt sla settings cache entry", zap.String("key", slaCacheKey))
	} else if err != redis.Nil {
		r.logger.Warn("sla settings cache read failed", zap.Error(err))
	}

	settings, err := r.inner.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if encoded, marshalErr := json.Marshal(settings); marshalErr == nil {
		if setErr := r.client.Set(ctx, slaCacheKey, encoded, r.ttl).Err(); setErr != nil {
			r.logger.Warn("sla settings cache write failed", zap.Error(setErr))
		}
	}
	return settings, nil
}
