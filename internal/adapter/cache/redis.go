package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/property-distress-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// KeyPrefix namespaces resolution entries in Redis.
const KeyPrefix = "distress:resolution:"

// RedisStore is a ResolutionCache shared across service instances. Entries
// never expire.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient builds a client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStore) Get(ctx context.Context, key string) (domain.CacheEntry, bool, error) {
	b, err := s.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.CacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("redis get: %w", err)
	}
	e, err := decodeEntry(key, b)
	if err != nil {
		return domain.CacheEntry{}, false, err
	}
	return e, true, nil
}

func (s *RedisStore) Put(ctx context.Context, e domain.CacheEntry) error {
	b, err := encodeEntry(e)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, KeyPrefix+e.Key, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Clear deletes every key under KeyPrefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// CheckReadiness pings the server.
func (s *RedisStore) CheckReadiness(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the client's connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
