package capping

import (
	"context"
	"errors"
	"testing"

	"github.com/prebid/vast-resolver/capping/backends/memory"
	"github.com/stretchr/testify/assert"
)

type pingingStore struct {
	failingStore
	err error
}

func (s pingingStore) Ping(ctx context.Context) error {
	return s.err
}

func TestCheckStore(t *testing.T) {
	assert.NoError(t, CheckStore(context.Background(), memory.NewStore("test.")), "stores without a backend always pass")
	assert.NoError(t, CheckStore(context.Background(), pingingStore{}))

	unreachable := errors.New("dial tcp: connection refused")
	assert.Equal(t, unreachable, CheckStore(context.Background(), pingingStore{err: unreachable}))
}
