package capping

import (
	"context"

	"github.com/prebid/vast-resolver/capping/backends/aerospike"
	"github.com/prebid/vast-resolver/capping/backends/memcache"
	"github.com/prebid/vast-resolver/capping/backends/memory"
	"github.com/prebid/vast-resolver/capping/backends/redis"
	"github.com/prebid/vast-resolver/config"
)

// Keys of the capping state. Backends prepend their configured prefix.
const (
	KeyLastSuccess       = "lastSuccessfullAd"
	KeyTotalCalls        = "totalCalls"
	KeyTotalCallsTimeout = "totalCallsTimeout"
)

// Store persists the capping state. Values are unix milliseconds or counters.
//
// Get must return 0 and no error for a key which was never set.
type Store interface {
	Get(ctx context.Context, key string) (int64, error)
	Set(ctx context.Context, key string, value int64) error
}

// Pinger is implemented by stores whose backend can be checked for reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckStore pings the store backend when it supports it.
func CheckStore(ctx context.Context, store Store) error {
	if pinger, ok := store.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// NewStore builds the Store selected by the configuration. Only stores which connect
// eagerly can fail.
func NewStore(cfg config.CappingStore) (Store, error) {
	switch cfg.Type {
	case config.StoreRedis:
		return redis.NewStore(cfg.Redis, cfg.KeyPrefix), nil
	case config.StoreMemcache:
		return memcache.NewStore(cfg.Memcache, cfg.KeyPrefix), nil
	case config.StoreAerospike:
		store, err := aerospike.NewStore(cfg.Aerospike, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return memory.NewStore(cfg.KeyPrefix), nil
	}
}
