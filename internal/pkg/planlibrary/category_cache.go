package planlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dosreb/planlibrary/app/models"
	"github.com/redis/go-redis/v9"
)

const categoryCacheKey = "plan_library:categories"

// CategoryCache keeps the category list between requests.
type CategoryCache interface {
	Get(ctx context.Context) ([]models.PlanCategory, bool, error)
	Set(ctx context.Context, categories []models.PlanCategory) error
	Invalidate(ctx context.Context) error
}

// RedisCategoryCache stores the list as one JSON value.
type RedisCategoryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCategoryCache(client redis.Cmdable, ttl time.Duration) *RedisCategoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCategoryCache{client: client, ttl: ttl}
}

func (c *RedisCategoryCache) Get(ctx context.Context) ([]models.PlanCategory, bool, error) {
	data, err := c.client.Get(ctx, categoryCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var categories []models.PlanCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, false, err
	}
	return categories, true, nil
}

func (c *RedisCategoryCache) Set(ctx context.Context, categories []models.PlanCategory) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, categoryCacheKey, data, c.ttl).Err()
}

func (c *RedisCategoryCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, categoryCacheKey).Err()
}
