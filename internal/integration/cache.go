package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"switchboard/internal/constants"
	"switchboard/internal/logger"
	"switchboard/pkg/metrics"
)

// CachedRepository is a read-through Redis cache in front of the Postgres
// repository. Integration records change rarely but are read on every
// webhook; cache errors degrade to the database, never fail the lookup.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedRepository {
	return &CachedRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (r *CachedRepository) FindByID(ctx context.Context, id string) (*Integration, error) {
	key := constants.CacheKeyPrefixIntegration + "id:" + id
	return r.lookup(ctx, key, func() (*Integration, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *CachedRepository) FindByTenantAndProvider(ctx context.Context, tenantInstanceID, provider string) (*Integration, error) {
	key := fmt.Sprintf("%s%s:%s", constants.CacheKeyPrefixIntegration, tenantInstanceID, provider)
	return r.lookup(ctx, key, func() (*Integration, error) {
		return r.inner.FindByTenantAndProvider(ctx, tenantInstanceID, provider)
	})
}

func (r *CachedRepository) lookup(ctx context.Context, key string, load func() (*Integration, error)) (*Integration, error) {
	if cached, err := r.client.Get(ctx, key).Result(); err == nil {
		var integ Integration
		if err := json.Unmarshal([]byte(cached), &integ); err == nil {
			metrics.IntegrationCacheTotal.WithLabelValues("hit").Inc()
			return &integ, nil
		}
	} else if err != redis.Nil {
		r.logger.WarnwCtx(ctx, "Integration cache read failed, falling back to database",
			"error", err,
			"key", key,
		)
	}

	metrics.IntegrationCacheTotal.WithLabelValues("miss").Inc()

	integ, err := load()
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(integ); err == nil {
		if err := r.client.Set(ctx, key, body, r.ttl).Err(); err != nil {
			r.logger.WarnwCtx(ctx, "Integration cache write failed",
				"error", err,
				"key", key,
			)
		}
	}

	return integ, nil
}
