// Package aerospike keeps the capping state in an Aerospike namespace. Every key of the
// state is one record holding a single integer bin.
package aerospike

import (
	"context"
	"fmt"

	as "github.com/aerospike/aerospike-client-go/v7"
	"github.com/aerospike/aerospike-client-go/v7/types"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/config"
)

const valueBin = "value"

// Client is the subset of *aerospike.Client the store needs.
type Client interface {
	Get(policy *as.BasePolicy, key *as.Key, binNames ...string) (*as.Record, as.Error)
	Put(policy *as.WritePolicy, key *as.Key, binMap as.BinMap) as.Error
}

type Store struct {
	client    Client
	namespace string
	set       string
	prefix    string

	readPolicy  *as.BasePolicy
	writePolicy *as.WritePolicy
	close       func()
}

// NewStore connects to the cluster. It fails when no seed host answers.
func NewStore(cfg config.AerospikeStore, prefix string) (*Store, error) {
	hosts := make([]*as.Host, len(cfg.Hosts))
	for i, h := range cfg.Hosts {
		hosts[i] = as.NewHost(h, cfg.Port)
	}
	policy := as.NewClientPolicy()
	policy.Timeout = cfg.Timeout()

	client, err := as.NewClientWithPolicyAndHost(policy, hosts...)
	if err != nil {
		return nil, fmt.Errorf("aerospike connection to %v failed: %w", cfg.Hosts, err)
	}
	glog.Infof("Storing the capping state in aerospike namespace %s at %v", cfg.Namespace, cfg.Hosts)

	store := NewStoreWithClient(client, cfg, prefix)
	store.close = client.Close
	return store, nil
}

func NewStoreWithClient(client Client, cfg config.AerospikeStore, prefix string) *Store {
	readPolicy := as.NewPolicy()
	readPolicy.TotalTimeout = cfg.Timeout()
	writePolicy := as.NewWritePolicy(0, as.TTLServerDefault)
	writePolicy.TotalTimeout = cfg.Timeout()

	return &Store{
		client:      client,
		namespace:   cfg.Namespace,
		set:         cfg.Set,
		prefix:      prefix,
		readPolicy:  readPolicy,
		writePolicy: writePolicy,
	}
}

func (s *Store) key(key string) (*as.Key, error) {
	asKey, err := as.NewKey(s.namespace, s.set, s.prefix+key)
	if err != nil {
		return nil, fmt.Errorf("aerospike key %s: %w", s.prefix+key, err)
	}
	return asKey, nil
}

func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	asKey, err := s.key(key)
	if err != nil {
		return 0, err
	}
	record, asErr := s.client.Get(s.readPolicy, asKey, valueBin)
	if asErr != nil {
		if asErr.Matches(types.KEY_NOT_FOUND_ERROR) {
			return 0, nil
		}
		return 0, fmt.Errorf("aerospike get %s failed: %w", s.prefix+key, asErr)
	}

	switch value := record.Bins[valueBin].(type) {
	case int:
		return int64(value), nil
	case int64:
		return value, nil
	default:
		glog.Warningf("Ignoring corrupted capping value %v for %s", record.Bins[valueBin], s.prefix+key)
		return 0, nil
	}
}

func (s *Store) Set(ctx context.Context, key string, value int64) error {
	asKey, err := s.key(key)
	if err != nil {
		return err
	}
	if asErr := s.client.Put(s.writePolicy, asKey, as.BinMap{valueBin: value}); asErr != nil {
		return fmt.Errorf("aerospike set %s failed: %w", s.prefix+key, asErr)
	}
	return nil
}

// Close releases the cluster connections.
func (s *Store) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
