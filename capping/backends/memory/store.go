// Package memory keeps the capping state in process memory. The state is lost on
// restart and is not shared between instances.
package memory

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

type Store struct {
	prefix string
	cache  *gocache.Cache
}

func NewStore(prefix string) *Store {
	return &Store{
		prefix: prefix,
		cache:  gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	value, ok := s.cache.Get(s.prefix + key)
	if !ok {
		return 0, nil
	}
	return value.(int64), nil
}

func (s *Store) Set(ctx context.Context, key string, value int64) error {
	s.cache.Set(s.prefix+key, value, gocache.NoExpiration)
	return nil
}
