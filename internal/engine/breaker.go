package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/pkg/types"
)

// persistent reports whether a store error should abort the current run
// instead of being skipped. Open-breaker and unavailable-backend errors
// will not heal within an iteration, so retrying person by person only
// burns time.
func persistent(err error) bool {
	return errors.Is(err, storage.ErrUnavailable) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests)
}

// BreakerStore wraps a GraphStore with a circuit breaker. After enough
// consecutive backend failures the breaker opens and every call fails
// fast with storage.ErrUnavailable, which the engine and job runner treat
// as a persistent failure.
type BreakerStore struct {
	inner   storage.GraphStore
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps store. Five consecutive failures open the
// breaker; it half-opens after 15 seconds.
func NewBreakerStore(store storage.GraphStore) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        "graph-store",
		MaxRequests: 1,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("WARNING: engine: circuit breaker %s: %s -> %s", name, from, to)
		},
	}
	return &BreakerStore{
		inner:   store,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

var _ storage.GraphStore = (*BreakerStore)(nil)

// run executes fn through the breaker, translating breaker rejections
// into storage.ErrUnavailable so callers need only one sentinel.
func (b *BreakerStore) run(fn func() (any, error)) (any, error) {
	result, err := b.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return result, err
}

// exec is run for calls with no result value.
func (b *BreakerStore) exec(fn func() error) error {
	_, err := b.run(func() (any, error) { return nil, fn() })
	return err
}

func (b *BreakerStore) CreatePerson(ctx context.Context, p types.Person) error {
	return b.exec(func() error { return b.inner.CreatePerson(ctx, p) })
}

func (b *BreakerStore) CreatePeople(ctx context.Context, people []types.Person) error {
	return b.exec(func() error { return b.inner.CreatePeople(ctx, people) })
}

func (b *BreakerStore) People(ctx context.Context) ([]int, error) {
	result, err := b.run(func() (any, error) { return b.inner.People(ctx) })
	if err != nil {
		return nil, err
	}
	return result.([]int), nil
}

func (b *BreakerStore) CountPeople(ctx context.Context) (int, error) {
	result, err := b.run(func() (any, error) { return b.inner.CountPeople(ctx) })
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (b *BreakerStore) UpsertRelationship(ctx context.Context, r types.Relationship) error {
	return b.exec(func() error { return b.inner.UpsertRelationship(ctx, r) })
}

func (b *BreakerStore) UpsertRelationships(ctx context.Context, rs []types.Relationship) error {
	return b.exec(func() error { return b.inner.UpsertRelationships(ctx, rs) })
}

func (b *BreakerStore) DeleteRelationship(ctx context.Context, person1, person2 int) error {
	return b.exec(func() error { return b.inner.DeleteRelationship(ctx, person1, person2) })
}

func (b *BreakerStore) AllRelationships(ctx context.Context) ([]types.Relationship, error) {
	result, err := b.run(func() (any, error) { return b.inner.AllRelationships(ctx) })
	if err != nil {
		return nil, err
	}
	return result.([]types.Relationship), nil
}

func (b *BreakerStore) CountBySign(ctx context.Context) (map[types.Sign]int, error) {
	result, err := b.run(func() (any, error) { return b.inner.CountBySign(ctx) })
	if err != nil {
		return nil, err
	}
	return result.(map[types.Sign]int), nil
}

func (b *BreakerStore) Triangles(ctx context.Context) ([]types.Triangle, error) {
	result, err := b.run(func() (any, error) { return b.inner.Triangles(ctx) })
	if err != nil {
		return nil, err
	}
	return result.([]types.Triangle), nil
}

func (b *BreakerStore) TrianglesContaining(ctx context.Context, personID int) ([]types.Triangle, error) {
	result, err := b.run(func() (any, error) { return b.inner.TrianglesContaining(ctx, personID) })
	if err != nil {
		return nil, err
	}
	return result.([]types.Triangle), nil
}

func (b *BreakerStore) NeighborsOfNeighbors(ctx context.Context, personID int) ([]int, error) {
	result, err := b.run(func() (any, error) { return b.inner.NeighborsOfNeighbors(ctx, personID) })
	if err != nil {
		return nil, err
	}
	return result.([]int), nil
}

func (b *BreakerStore) ClearAll(ctx context.Context) error {
	return b.exec(func() error { return b.inner.ClearAll(ctx) })
}

func (b *BreakerStore) Close() error { return b.inner.Close() }
