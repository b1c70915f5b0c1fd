package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"mealtracker/internal/model"
)

type MetricsCache struct {
	client         *redisv9.Client
	metricsTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewMetricsCache(client *redisv9.Client, metricsTTL, dirtyMarkerTTL time.Duration) *MetricsCache {
	if metricsTTL <= 0 {
		metricsTTL = 5 * time.Minute
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &MetricsCache{
		client:         client,
		metricsTTL:     metricsTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *MetricsCache) GetMetrics(ctx context.Context, userID string) (model.MealMetrics, bool, error) {
	raw, err := c.client.Get(ctx, c.metricsKey(userID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return model.MealMetrics{}, false, nil
	}
	if err != nil {
		return model.MealMetrics{}, false, fmt.Errorf("redis get metrics failed: %w", err)
	}

	var metrics model.MealMetrics
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return model.MealMetrics{}, false, fmt.Errorf("unmarshal cached metrics failed: %w", err)
	}
	return metrics, true, nil
}

func (c *MetricsCache) SetMetrics(ctx context.Context, userID string, metrics model.MealMetrics) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.metricsKey(userID), payload, c.metricsTTL).Err(); err != nil {
		return fmt.Errorf("redis set metrics failed: %w", err)
	}
	return nil
}

func (c *MetricsCache) DeleteMetrics(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.metricsKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete metrics failed: %w", err)
	}
	return nil
}

func (c *MetricsCache) MarkDirty(ctx context.Context, userID string) error {
	if err := c.client.Set(ctx, c.dirtyKey(userID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *MetricsCache) IsDirty(ctx context.Context, userID string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *MetricsCache) metricsKey(userID string) string {
	return "meals:metrics:" + userID
}

func (c *MetricsCache) dirtyKey(userID string) string {
	return "meals:metrics:dirty:" + userID
}
