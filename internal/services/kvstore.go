package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dineatlas/dineatlas/backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by KVStore.Get for absent or expired keys.
var ErrKeyNotFound = errors.New("key not found")

// ErrStoreUnavailable wraps network/timeout failures talking to the backing store.
var ErrStoreUnavailable = errors.New("key-value store unavailable")

// KVStore is the expiring key-value contract the session components run on:
// GET key, SET key value EX seconds, DEL key. Implementations must be atomic
// at the single-key level; no cross-key transactions are needed.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisKV is the Redis-backed KVStore. Every round trip is bounded by a
// timeout so a degraded Redis cannot hang request handling.
type RedisKV struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisKV(client *redis.Client, timeout time.Duration) *RedisKV {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisKV{client: client, timeout: timeout}
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisKV) Del(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping probes store liveness at startup.
func (s *RedisKV) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// MemoryKV is the in-process KVStore over an ExpiringMap. It never fails,
// does not survive restarts and is not shared across server instances.
type MemoryKV struct {
	m *ExpiringMap
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: NewExpiringMap()}
}

func (s *MemoryKV) Get(_ context.Context, key string) (string, error) {
	value, ok := s.m.Get(key)
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.m.Set(key, value, ttl)
	return nil
}

func (s *MemoryKV) Del(_ context.Context, key string) error {
	s.m.Delete(key)
	return nil
}

// Map exposes the underlying expiring map for periodic sweeping.
func (s *MemoryKV) Map() *ExpiringMap {
	return s.m
}

// FailoverKV prefers the primary store and degrades to the in-process
// fallback when the primary is unreachable. The fallback does not survive
// restarts and is per-instance; that is an accepted availability-over-
// consistency tradeoff, and every failover is logged rather than masked.
type FailoverKV struct {
	primary  KVStore
	fallback *MemoryKV
}

func NewFailoverKV(primary KVStore, fallback *MemoryKV) *FailoverKV {
	return &FailoverKV{primary: primary, fallback: fallback}
}

func (s *FailoverKV) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil || errors.Is(err, ErrKeyNotFound) {
		return value, err
	}

	logger.Warn().Err(err).Str("key", key).Msg("kv primary unreachable, reading fallback")
	return s.fallback.Get(ctx, key)
}

func (s *FailoverKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.primary.Set(ctx, key, value, ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("kv primary unreachable, writing fallback")
		return s.fallback.Set(ctx, key, value, ttl)
	}
	return nil
}

func (s *FailoverKV) Del(ctx context.Context, key string) error {
	err := s.primary.Del(ctx, key)
	// The fallback may hold a stale copy from a previous outage; always clear it.
	if ferr := s.fallback.Del(ctx, key); ferr != nil {
		return ferr
	}
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("kv primary unreachable during delete")
		return err
	}
	return nil
}
