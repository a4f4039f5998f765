package counts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kantinku-be/internal/order"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "counts:cafeteria:"

// RedisStore keeps snapshots in Redis so every dashboard instance shares one
// cache.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func snapshotKey(cafeteriaID uint) string {
	return fmt.Sprintf("%s%d", snapshotKeyPrefix, cafeteriaID)
}

func (s *RedisStore) Get(ctx context.Context, cafeteriaID uint) (*order.CountsSnapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(cafeteriaID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap order.CountsSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		// A corrupt entry behaves like a miss; the caller recomputes.
		return nil, nil
	}
	return &snap, nil
}

func (s *RedisStore) Set(ctx context.Context, snap *order.CountsSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, snapshotKey(snap.CafeteriaID), data, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, cafeteriaID uint) error {
	return s.client.Del(ctx, snapshotKey(cafeteriaID)).Err()
}

func (s *RedisStore) DeleteAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, snapshotKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
