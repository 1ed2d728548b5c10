// Package kv wraps the Redis client used for context caching and prediction events.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a JSON get/set/publish facade over a Redis client.
type Store struct {
	client *redis.Client
}

// Connect parses a redis:// URL and pings the server, retrying while it starts up.
func Connect(ctx context.Context, url string, attempts int) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("kv connect: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Ping(pctx).Err()
		cancel()
		if lastErr == nil {
			return &Store{client: client}, nil
		}
		slog.Warn("redis ping failed", "attempt", i+1, "of", attempts, "err", lastErr)

		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("kv connect: ping failed after %d attempts: %w", attempts, lastErr)
}

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Client() *redis.Client { return s.client }

// Get decodes the value at key into dest. found is false on a miss.
func (s *Store) Get(ctx context.Context, key string, dest any) (found bool, err error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// Publish sends value as JSON on channel.
func (s *Store) Publish(ctx context.Context, channel string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv publish %q: %w", channel, err)
	}
	return s.client.Publish(ctx, channel, data).Err()
}

func (s *Store) Close() error { return s.client.Close() }
