package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/config"
	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client          *redis.Client
	flightsTTL      time.Duration
	availabilityTTL time.Duration
	dedupTTL        time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL, availabilityTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL, availabilityTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, flightsTTL, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          client,
		flightsTTL:      flightsTTL,
		availabilityTTL: availabilityTTL,
		dedupTTL:        24 * time.Hour,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetSummaries(ctx context.Context) ([]domain.FlightSummary, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var summaries []domain.FlightSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (c *RedisCache) SetSummaries(ctx context.Context, summaries []domain.FlightSummary) error {
	payload, err := json.Marshal(summaries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

func (c *RedisCache) GetAvailability(ctx context.Context, flightID string) (int, bool, error) {
	n, err := c.client.Get(ctx, availabilityKey(flightID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return n, true, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, flightID string, available int) error {
	return c.client.Set(ctx, availabilityKey(flightID), available, c.availabilityTTL).Err()
}

// Seen reports whether consumer already finished handling eventID.
func (c *RedisCache) Seen(ctx context.Context, consumer, eventID string) (bool, error) {
	n, err := c.client.Exists(ctx, dedupKey(consumer, eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed records that consumer finished handling eventID. Marks expire after a
// day, which bounds how late a redelivery can still be recognised.
func (c *RedisCache) MarkProcessed(ctx context.Context, consumer, eventID string) error {
	return c.client.Set(ctx, dedupKey(consumer, eventID), "1", c.dedupTTL).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func availabilityKey(flightID string) string {
	return fmt.Sprintf("cache:flight:%s:available", flightID)
}

func dedupKey(consumer, eventID string) string {
	return fmt.Sprintf("dedup:%s:%s", consumer, eventID)
}
