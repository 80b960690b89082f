// Package memcache keeps the capping state in Memcached so that every instance shares it.
package memcache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/config"
)

// Client is the subset of *memcache.Client the store needs.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

type Store struct {
	client Client
	prefix string
}

func NewStore(cfg config.MemcacheStore, prefix string) *Store {
	glog.Infof("Storing the capping state in memcache at %v", cfg.Hosts)
	client := memcache.New(cfg.Hosts...)
	client.Timeout = cfg.Timeout()
	return NewStoreWithClient(client, prefix)
}

func NewStoreWithClient(client Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	item, err := s.client.Get(s.prefix + key)
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return 0, nil
		}
		return 0, fmt.Errorf("memcache get %s failed: %w", s.prefix+key, err)
	}
	value, err := strconv.ParseInt(string(item.Value), 10, 64)
	if err != nil {
		glog.Warningf("Ignoring corrupted capping value %q for %s", item.Value, s.prefix+key)
		return 0, nil
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value int64) error {
	err := s.client.Set(&memcache.Item{
		Key:   s.prefix + key,
		Value: []byte(strconv.FormatInt(value, 10)),
	})
	if err != nil {
		return fmt.Errorf("memcache set %s failed: %w", s.prefix+key, err)
	}
	return nil
}
