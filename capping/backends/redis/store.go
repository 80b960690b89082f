// Package redis keeps the capping state in Redis so that every instance shares it.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/config"
	redis "github.com/redis/go-redis/v9"
)

type Store struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewStore builds a Redis-backed capping store. It does not dial until the first call.
func NewStore(cfg config.RedisStore, prefix string) *Store {
	glog.Infof("Storing the capping state in redis at %s (db %d)", cfg.Addr, cfg.DB)
	return NewStoreWithClient(redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DB:           cfg.DB,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DialTimeout:  cfg.Timeout(),
		ReadTimeout:  cfg.Timeout(),
		WriteTimeout: cfg.Timeout(),
	}), prefix, cfg.Timeout())
}

func NewStoreWithClient(client *redis.Client, prefix string, timeout time.Duration) *Store {
	return &Store{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}
}

func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	readCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	value, err := s.client.Get(readCtx, s.prefix+key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get %s failed: %w", s.prefix+key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value int64) error {
	writeCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Set(writeCtx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", s.prefix+key, err)
	}
	return nil
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(pingCtx).Err()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Close releases Redis resources.
func (s *Store) Close() error {
	return s.client.Close()
}
