package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mannyAndem/crypto-clone/internal/domain"
)

// snapshotKey holds the mirrored rate in Redis.
const snapshotKey = "monitor:price:usd"

// RedisSnapshot mirrors the price snapshot through Redis so the beat and
// worker processes share one value. Reads fall back to the fixed default
// when the key is absent; writes never expire the key, so the last
// successfully fetched rate survives until the next overwrite.
type RedisSnapshot struct {
	client *redis.Client
}

// NewRedisSnapshot creates a Redis-backed snapshot.
func NewRedisSnapshot(client *redis.Client) *RedisSnapshot {
	return &RedisSnapshot{client: client}
}

// Compile-time interface check.
var _ RateStore = (*RedisSnapshot)(nil)

// Rate returns the mirrored rate, or domain.DefaultUSDRate when the key has
// never been written or Redis is unavailable.
func (s *RedisSnapshot) Rate(ctx context.Context) float64 {
	val, err := s.client.Get(ctx, snapshotKey).Result()
	if err != nil {
		return domain.DefaultUSDRate
	}

	rate, err := strconv.ParseFloat(val, 64)
	if err != nil || rate <= 0 {
		return domain.DefaultUSDRate
	}
	return rate
}

// Update overwrites the mirrored rate.
func (s *RedisSnapshot) Update(ctx context.Context, rate float64) error {
	val := strconv.FormatFloat(rate, 'f', -1, 64)
	if err := s.client.Set(ctx, snapshotKey, val, 0).Err(); err != nil {
		return fmt.Errorf("update price snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a rate has ever been mirrored.
func (s *RedisSnapshot) Exists(ctx context.Context) (bool, error) {
	_, err := s.client.Get(ctx, snapshotKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
