package config

import (
	"errors"
	"fmt"
	"time"
)

type StoreType string

const (
	StoreMemory    StoreType = "memory"
	StoreRedis     StoreType = "redis"
	StoreMemcache  StoreType = "memcache"
	StoreAerospike StoreType = "aerospike"
)

// Capping configures the gate consulted before every client call.
type Capping struct {
	// FreeCallThreshold denies the first N calls of every hour. 0 disables the check.
	FreeCallThreshold int `mapstructure:"free_call_threshold"`
	// MinimumCallIntervalMS is the minimum time between the last successful call
	// and the next admitted one. 0 disables the check.
	MinimumCallIntervalMS int64        `mapstructure:"minimum_call_interval_ms"`
	Store                 CappingStore `mapstructure:"store"`
}

func (cfg *Capping) MinimumCallInterval() time.Duration {
	return time.Duration(cfg.MinimumCallIntervalMS) * time.Millisecond
}

func (cfg *Capping) validate(errs []error) []error {
	if cfg.FreeCallThreshold < 0 {
		errs = append(errs, fmt.Errorf("capping.free_call_threshold must not be negative. Got %d", cfg.FreeCallThreshold))
	}
	if cfg.MinimumCallIntervalMS < 0 {
		errs = append(errs, fmt.Errorf("capping.minimum_call_interval_ms must not be negative. Got %d", cfg.MinimumCallIntervalMS))
	}
	return cfg.Store.validate(errs)
}

// CappingStore selects where the capping state is persisted.
type CappingStore struct {
	Type      StoreType      `mapstructure:"type"`
	KeyPrefix string         `mapstructure:"key_prefix"`
	Redis     RedisStore     `mapstructure:"redis"`
	Memcache  MemcacheStore  `mapstructure:"memcache"`
	Aerospike AerospikeStore `mapstructure:"aerospike"`
}

type RedisStore struct {
	Addr      string `mapstructure:"addr"`
	DB        int    `mapstructure:"db"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

func (cfg *RedisStore) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMS) * time.Millisecond
}

type MemcacheStore struct {
	Hosts     []string `mapstructure:"hosts"`
	TimeoutMS int      `mapstructure:"timeout_ms"`
}

func (cfg *MemcacheStore) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMS) * time.Millisecond
}

type AerospikeStore struct {
	Hosts     []string `mapstructure:"hosts"`
	Port      int      `mapstructure:"port"`
	Namespace string   `mapstructure:"namespace"`
	Set       string   `mapstructure:"set"`
	TimeoutMS int      `mapstructure:"timeout_ms"`
}

func (cfg *AerospikeStore) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMS) * time.Millisecond
}

func (cfg *CappingStore) validate(errs []error) []error {
	switch cfg.Type {
	case StoreMemory:
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("capping.store.redis.addr must be set when capping.store.type is %q", StoreRedis))
		}
		if cfg.Redis.TimeoutMS <= 0 {
			errs = append(errs, fmt.Errorf("capping.store.redis.timeout_ms must be positive. Got %d", cfg.Redis.TimeoutMS))
		}
	case StoreMemcache:
		if len(cfg.Memcache.Hosts) == 0 {
			errs = append(errs, fmt.Errorf("capping.store.memcache.hosts must be set when capping.store.type is %q", StoreMemcache))
		}
		if cfg.Memcache.TimeoutMS <= 0 {
			errs = append(errs, fmt.Errorf("capping.store.memcache.timeout_ms must be positive. Got %d", cfg.Memcache.TimeoutMS))
		}
	case StoreAerospike:
		if len(cfg.Aerospike.Hosts) == 0 {
			errs = append(errs, fmt.Errorf("capping.store.aerospike.hosts must be set when capping.store.type is %q", StoreAerospike))
		}
		if cfg.Aerospike.Namespace == "" {
			errs = append(errs, errors.New("capping.store.aerospike.namespace must be set"))
		}
		if cfg.Aerospike.TimeoutMS <= 0 {
			errs = append(errs, fmt.Errorf("capping.store.aerospike.timeout_ms must be positive. Got %d", cfg.Aerospike.TimeoutMS))
		}
	default:
		errs = append(errs, fmt.Errorf("capping.store.type must be one of [%s %s %s %s]. Got %q", StoreMemory, StoreRedis, StoreMemcache, StoreAerospike, cfg.Type))
	}
	return errs
}
