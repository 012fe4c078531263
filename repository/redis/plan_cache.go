package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/planwise/backend/domain"
)

// PlanCache keeps the latest plan snapshot per user in Redis so the hot
// getLatestPlan read path can skip Postgres. It is refreshed on every plan
// save; a miss simply falls through to the snapshot store.
type PlanCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

func NewPlanCache(client *redislib.Client, ttl time.Duration) *PlanCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PlanCache{
		client: client,
		prefix: "plan:latest:",
		ttl:    ttl,
	}
}

func (c *PlanCache) Get(ctx context.Context, userID string) (*domain.Plan, error) {
	result, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(result), &plan); err != nil {
		return nil, err
	}
	if err := plan.Reindex(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *PlanCache) Set(ctx context.Context, plan *domain.Plan) error {
	if plan == nil || plan.UserID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(plan.UserID), payload, c.ttl).Err()
}

func (c *PlanCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *PlanCache) key(userID string) string {
	return c.prefix + userID
}
