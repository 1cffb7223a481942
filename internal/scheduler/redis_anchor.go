package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const anchorKeyPrefix = "beat:anchor:"

// RedisAnchorStore persists schedule anchors in Redis so the beat keeps
// its cadence across restarts.
type RedisAnchorStore struct {
	client *redis.Client
}

// NewRedisAnchorStore creates an anchor store on the given client.
func NewRedisAnchorStore(client *redis.Client) *RedisAnchorStore {
	return &RedisAnchorStore{client: client}
}

// Compile-time interface check.
var _ AnchorStore = (*RedisAnchorStore)(nil)

func (s *RedisAnchorStore) LastRun(ctx context.Context, name string) (time.Time, error) {
	val, err := s.client.Get(ctx, anchorKeyPrefix+name).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get anchor %s: %w", name, err)
	}

	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		// Unreadable anchor is treated as absent; the entry fires once.
		return time.Time{}, nil
	}
	return t, nil
}

func (s *RedisAnchorStore) SetLastRun(ctx context.Context, name string, t time.Time) error {
	val := t.UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, anchorKeyPrefix+name, val, 0).Err(); err != nil {
		return fmt.Errorf("set anchor %s: %w", name, err)
	}
	return nil
}
