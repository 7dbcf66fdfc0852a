package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/internal/storage/memory"
	"github.com/scrypster/triad/pkg/types"
)

// failingStore wraps the in-memory store and fails every call once armed.
type failingStore struct {
	*memory.GraphStore
	fail bool
}

var errBackendDown = errors.New("backend down")

func (f *failingStore) People(ctx context.Context) ([]int, error) {
	if f.fail {
		return nil, errBackendDown
	}
	return f.GraphStore.People(ctx)
}

func (f *failingStore) CountPeople(ctx context.Context) (int, error) {
	if f.fail {
		return 0, errBackendDown
	}
	return f.GraphStore.CountPeople(ctx)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingStore{GraphStore: memory.New(), fail: true}
	bs := NewBreakerStore(inner)
	ctx := context.Background()

	// The first failures pass the backend error through.
	for i := 0; i < 5; i++ {
		_, err := bs.People(ctx)
		require.ErrorIs(t, err, errBackendDown)
	}

	// Now the breaker is open and fails fast with the sentinel the engine
	// treats as persistent.
	_, err := bs.People(ctx)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.True(t, persistent(err))
}

func TestBreakerPassesThroughWhenHealthy(t *testing.T) {
	inner := &failingStore{GraphStore: memory.New()}
	bs := NewBreakerStore(inner)
	ctx := context.Background()

	require.NoError(t, bs.CreatePeople(ctx, []types.Person{{ID: 0}, {ID: 1}}))
	ids, err := bs.People(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, ids)

	n, err := bs.CountPeople(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPersistentErrorClassification(t *testing.T) {
	assert.True(t, persistent(storage.ErrUnavailable))
	assert.False(t, persistent(errBackendDown))
	assert.False(t, persistent(nil))
}
