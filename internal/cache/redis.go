package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fjod/storefront/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	maxJitterMinutes = 5
	maxSetAttempts   = 3
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, key repository.Key) (*repository.Record, error) {
	data, err := r.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec repository.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal slot record failed: %w", err)
	}
	return &rec, nil
}

// Set stores rec unless the cache already holds the same or a newer version, so refreshes from
// concurrent writers can land in any order.
func (r *RedisCache) Set(ctx context.Context, key repository.Key, rec *repository.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal slot record failed: %w", err)
	}

	k := cacheKey(key)
	setIfNewer := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, k).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			var cached repository.Record
			if json.Unmarshal(current, &cached) == nil && cached.Version >= rec.Version {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, r.ttl())
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxSetAttempts; attempt++ {
		err = r.client.Watch(ctx, setIfNewer, k)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Fill(ctx context.Context, key repository.Key, rec *repository.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal slot record failed: %w", err)
	}
	if err := r.client.SetNX(ctx, cacheKey(key), payload, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}

// ttl adds jitter so a burst of fills does not expire together.
func (r *RedisCache) ttl() time.Duration {
	return r.baseTTL + time.Duration(rand.IntN(maxJitterMinutes))*time.Minute
}

func (r *RedisCache) Delete(ctx context.Context, key repository.Key) error {
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(key repository.Key) string {
	return fmt.Sprintf("%s:%s", key.Slot, key.Owner)
}
