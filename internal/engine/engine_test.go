package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/triad/internal/model"
	"github.com/scrypster/triad/internal/storage/memory"
	"github.com/scrypster/triad/pkg/types"
)

func classicEngine(t *testing.T, seed uint64) (*Engine, *memory.GraphStore) {
	t.Helper()
	comps, err := model.ResolvePreset("classic")
	require.NoError(t, err)
	store := memory.New()
	return New(store, comps, seed), store
}

// seedUnbalanced builds the ++- triangle 0-1-2 plus a spare person 3
// attached to 2, the smallest graph with an unbalanced triangle and a
// friend-of-friend candidate.
func seedUnbalanced(t *testing.T, store *memory.GraphStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.CreatePeople(ctx, []types.Person{
		{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3},
	}))
	require.NoError(t, store.UpsertRelationships(ctx, []types.Relationship{
		{Person1: 0, Person2: 1, Value: 1, Sign: types.SignPositive},
		{Person1: 1, Person2: 2, Value: 1, Sign: types.SignPositive},
		{Person1: 0, Person2: 2, Value: -1, Sign: types.SignNegative},
		{Person1: 2, Person2: 3, Value: 1, Sign: types.SignPositive},
	}))
}

func TestInitializeRandomGraph(t *testing.T) {
	eng, store := classicEngine(t, 1)
	ctx := context.Background()

	stats, err := eng.InitializeRandomGraph(ctx, 10, 0.5, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.NumPeople)

	rels, err := store.AllRelationships(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, rels)
	assert.LessOrEqual(t, len(rels), 45)
	for _, r := range rels {
		assert.Less(t, r.Person1, r.Person2)
		assert.NotEqual(t, types.SignNeutral, r.Sign)
		assert.Equal(t, r.Value, r.InitialValue)
	}
}

func TestInitializeReplacesExistingGraph(t *testing.T) {
	eng, store := classicEngine(t, 2)
	ctx := context.Background()
	seedUnbalanced(t, store)

	stats, err := eng.InitializeRandomGraph(ctx, 5, 1.0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.NumPeople)

	ids, err := store.People(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, ids)
}

func TestStatisticsCountsTriangles(t *testing.T) {
	eng, store := classicEngine(t, 1)
	ctx := context.Background()
	seedUnbalanced(t, store)

	stats, err := eng.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.NumPeople)
	assert.Equal(t, 1, stats.TotalTriangles)
	assert.Equal(t, 0, stats.BalancedTriangles)
	assert.Equal(t, 1, stats.UnbalancedTriangles)
	assert.Zero(t, stats.BalanceRatio)
	assert.Equal(t, 3, stats.Relationships[types.SignPositive])
	assert.Equal(t, 1, stats.Relationships[types.SignNegative])
}

func TestRunIterationSatisfiedPeopleDoNothing(t *testing.T) {
	eng, store := classicEngine(t, 1)
	ctx := context.Background()
	require.NoError(t, store.CreatePeople(ctx, []types.Person{{ID: 0}, {ID: 1}, {ID: 2}}))
	require.NoError(t, store.UpsertRelationships(ctx, []types.Relationship{
		{Person1: 0, Person2: 1, Value: 1, Sign: types.SignPositive},
		{Person1: 1, Person2: 2, Value: 1, Sign: types.SignPositive},
		{Person1: 0, Person2: 2, Value: 1, Sign: types.SignPositive},
	}))

	result, err := eng.RunIteration(ctx, 1.0)
	require.NoError(t, err)
	assert.Zero(t, result.ChangesMade)
	assert.Equal(t, 1, result.Stats.BalancedTriangles)
}

func TestRunIterationZeroProbabilityChangesNothing(t *testing.T) {
	eng, store := classicEngine(t, 1)
	ctx := context.Background()
	seedUnbalanced(t, store)

	result, err := eng.RunIteration(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, result.ChangesMade)
	assert.Equal(t, 1, result.Stats.UnbalancedTriangles)
}

func TestRunIterationEventuallyResolvesUnbalance(t *testing.T) {
	eng, store := classicEngine(t, 42)
	ctx := context.Background()
	seedUnbalanced(t, store)

	for i := 0; i < 200; i++ {
		result, err := eng.RunIteration(ctx, 1.0)
		require.NoError(t, err)
		if result.Stats.UnbalancedTriangles == 0 {
			return
		}
	}
	t.Fatal("graph still unbalanced after 200 iterations")
}

func TestNeutralRelationshipsNeverStored(t *testing.T) {
	eng, store := classicEngine(t, 7)
	ctx := context.Background()
	seedUnbalanced(t, store)

	for i := 0; i < 50; i++ {
		_, err := eng.RunIteration(ctx, 1.0)
		require.NoError(t, err)
	}

	rels, err := store.AllRelationships(ctx)
	require.NoError(t, err)
	for _, r := range rels {
		assert.False(t, eng.Components().Model.IsNeutral(r.Value),
			"edge (%d, %d) holds neutral value %g", r.Person1, r.Person2, r.Value)
	}
	counts, err := store.CountBySign(ctx)
	require.NoError(t, err)
	assert.NotContains(t, counts, types.SignNeutral)
}

func TestDecayDeletesEdgesCrossingNeutral(t *testing.T) {
	comps, err := model.Resolve("custom", model.PresetSpec{
		RelationshipModel: "bipolar",
		BalanceRule:       "product",
		ActionStrategy:    "classic",
		Decay:             "linear",
		Params:            model.PresetParams{DecayRate: 0.5, NeutralThreshold: 0.05},
	})
	require.NoError(t, err)

	store := memory.New()
	eng := New(store, comps, 1)
	ctx := context.Background()
	require.NoError(t, store.CreatePeople(ctx, []types.Person{{ID: 0}, {ID: 1}}))
	require.NoError(t, store.UpsertRelationship(ctx, types.Relationship{
		Person1: 0, Person2: 1, Value: 0.6, Sign: types.SignPositive,
	}))

	// First pass: 0.6 -> 0.1, still above the neutral threshold.
	result, err := eng.RunIteration(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, result.ChangesMade)
	rels, err := store.AllRelationships(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.InDelta(t, 0.1, rels[0].Value, 1e-9)

	// Second pass: 0.1 -> 0, inside the neutral band, so the record goes.
	_, err = eng.RunIteration(ctx, 0)
	require.NoError(t, err)
	rels, err = store.AllRelationships(ctx)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestNodeStatuses(t *testing.T) {
	eng, store := classicEngine(t, 1)
	ctx := context.Background()
	seedUnbalanced(t, store)

	statuses, err := eng.NodeStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{
		0: "unbalanced",
		1: "unbalanced",
		2: "unbalanced",
		3: "none",
	}, statuses)
}

func TestDeterministicGivenSeed(t *testing.T) {
	run := func() []types.Relationship {
		eng, store := classicEngine(t, 99)
		ctx := context.Background()
		_, err := eng.InitializeRandomGraph(ctx, 8, 0.4, 0.3)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			_, err := eng.RunIteration(ctx, 0.8)
			require.NoError(t, err)
		}
		rels, err := store.AllRelationships(ctx)
		require.NoError(t, err)
		return rels
	}
	assert.Equal(t, run(), run())
}
