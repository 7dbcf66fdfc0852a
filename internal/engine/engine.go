// Package engine drives the balance simulation: random graph setup, the
// per-iteration update process, graph statistics, and background simulation
// jobs. The engine itself is not safe for concurrent mutation; the
// JobManager serialises access to it.
package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/scrypster/triad/internal/model"
	"github.com/scrypster/triad/internal/storage"
	"github.com/scrypster/triad/pkg/types"
)

// Engine runs the simulation against a graph store with a fixed set of
// resolved components. All randomness flows through one rand.Rand, so a
// run is reproducible given the same seed, store contents, and inputs.
type Engine struct {
	store storage.GraphStore
	comps model.Components
	rng   *rand.Rand
}

// New creates an engine. A zero seed picks a time-based one, which is the
// normal mode; tests pass a fixed seed for reproducibility.
func New(store storage.GraphStore, comps model.Components, seed uint64) *Engine {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Engine{
		store: store,
		comps: comps,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Components returns the resolved component set the engine runs with.
func (e *Engine) Components() model.Components { return e.comps }

// InitializeRandomGraph clears the store and builds a fresh graph of
// numPeople persons with edges sampled pairwise: each unordered pair gets
// a positive edge with probability posProb, a negative one with negProb,
// and no edge otherwise.
func (e *Engine) InitializeRandomGraph(ctx context.Context, numPeople int, posProb, negProb float64) (types.GraphStats, error) {
	if err := e.store.ClearAll(ctx); err != nil {
		return types.GraphStats{}, fmt.Errorf("engine: failed to clear graph: %w", err)
	}

	people := make([]types.Person, numPeople)
	for i := range people {
		people[i] = types.Person{ID: i, Name: fmt.Sprintf("Person %d", i)}
	}
	if err := e.store.CreatePeople(ctx, people); err != nil {
		return types.GraphStats{}, fmt.Errorf("engine: failed to create people: %w", err)
	}

	var rels []types.Relationship
	for i := 0; i < numPeople; i++ {
		for j := i + 1; j < numPeople; j++ {
			value, ok := e.comps.Model.Sample(e.rng, posProb, negProb)
			if !ok {
				continue
			}
			rels = append(rels, types.Relationship{
				Person1:      i,
				Person2:      j,
				Value:        value,
				Sign:         e.comps.Model.Classify(value),
				InitialValue: value,
			})
		}
	}
	if err := e.store.UpsertRelationships(ctx, rels); err != nil {
		return types.GraphStats{}, fmt.Errorf("engine: failed to seed relationships: %w", err)
	}

	stats, err := e.Statistics(ctx)
	if err != nil {
		return types.GraphStats{}, err
	}
	log.Printf("engine: initialized graph with %d people, %d relationships (preset %s)",
		numPeople, len(rels), e.comps.Preset)
	return stats, nil
}

// RunIteration executes one pass of the balance process: every person, in
// ascending id order, looks at their triangles and may take one action.
// Each person sees the graph as left by the persons before them. After the
// action pass, the configured decay drifts every remaining edge; decay
// mutations are not counted as changes.
func (e *Engine) RunIteration(ctx context.Context, actionProb float64) (types.IterationResult, error) {
	people, err := e.store.People(ctx)
	if err != nil {
		return types.IterationResult{}, fmt.Errorf("engine: failed to list people: %w", err)
	}

	var changes []types.Change
	for _, id := range people {
		change, err := e.stepPerson(ctx, id, actionProb)
		if err != nil {
			if persistent(err) {
				return types.IterationResult{}, fmt.Errorf("engine: aborting iteration at person %d: %w", id, err)
			}
			log.Printf("WARNING: engine: person %d step failed, skipping: %v", id, err)
			continue
		}
		if change != nil {
			changes = append(changes, *change)
		}
	}

	if err := e.applyDecay(ctx); err != nil {
		return types.IterationResult{}, err
	}

	stats, err := e.Statistics(ctx)
	if err != nil {
		return types.IterationResult{}, err
	}
	return types.IterationResult{
		ChangesMade: len(changes),
		Changes:     changes,
		Stats:       stats,
	}, nil
}

// stepPerson runs one person's decision and applies the resulting action.
// A nil change means the person did nothing.
func (e *Engine) stepPerson(ctx context.Context, id int, actionProb float64) (*types.Change, error) {
	triangles, err := e.store.TrianglesContaining(ctx, id)
	if err != nil {
		return nil, err
	}

	var unbalanced []types.Triangle
	for _, t := range triangles {
		if e.comps.Evaluator.Evaluate(t.E1, t.E2, t.E3) == types.VerdictUnbalanced {
			unbalanced = append(unbalanced, t)
		}
	}

	// The 2-hop query only runs if the strategy takes a create path.
	candidates := func() []int {
		fof, err := e.store.NeighborsOfNeighbors(ctx, id)
		if err != nil {
			log.Printf("WARNING: engine: 2-hop query for person %d failed: %v", id, err)
			return nil
		}
		return fof
	}

	action := e.comps.Strategy.Decide(e.rng, id, unbalanced, candidates, actionProb, e.comps.Model)
	switch action.Kind {
	case model.ActionNone:
		return nil, nil

	case model.ActionModifyEdge:
		if e.comps.Model.IsNeutral(action.NewValue) {
			if err := e.store.DeleteRelationship(ctx, action.Person1, action.Person2); err != nil {
				return nil, err
			}
			return &types.Change{
				Kind:     "delete_edge",
				Person1:  action.Person1,
				Person2:  action.Person2,
				OldValue: action.OldValue,
			}, nil
		}
		if err := e.store.UpsertRelationship(ctx, types.Relationship{
			Person1: action.Person1,
			Person2: action.Person2,
			Value:   action.NewValue,
			Sign:    e.comps.Model.Classify(action.NewValue),
		}); err != nil {
			return nil, err
		}
		return &types.Change{
			Kind:     "modify_edge",
			Person1:  action.Person1,
			Person2:  action.Person2,
			OldValue: action.OldValue,
			NewValue: action.NewValue,
		}, nil

	case model.ActionCreateEdge:
		if err := e.store.UpsertRelationship(ctx, types.Relationship{
			Person1:      action.Person1,
			Person2:      action.Person2,
			Value:        action.NewValue,
			Sign:         e.comps.Model.Classify(action.NewValue),
			InitialValue: action.NewValue,
		}); err != nil {
			return nil, err
		}
		return &types.Change{
			Kind:     "create_edge",
			Person1:  action.Person1,
			Person2:  action.Person2,
			NewValue: action.NewValue,
		}, nil

	default:
		return nil, fmt.Errorf("engine: strategy %s returned unknown action kind %d",
			e.comps.Strategy.Name(), action.Kind)
	}
}

// applyDecay drifts every stored edge once. Edges whose decayed value
// crosses into the neutral band are deleted, keeping the invariant that
// neutral relationships have no record.
func (e *Engine) applyDecay(ctx context.Context) error {
	if _, none := e.comps.Decay.(model.NoDecay); none {
		return nil
	}

	rels, err := e.store.AllRelationships(ctx)
	if err != nil {
		return fmt.Errorf("engine: failed to load relationships for decay: %w", err)
	}
	for _, r := range rels {
		decayed := e.comps.Decay.Apply(r.Value)
		if decayed == r.Value {
			continue
		}
		if e.comps.Model.IsNeutral(decayed) {
			if err := e.store.DeleteRelationship(ctx, r.Person1, r.Person2); err != nil {
				return fmt.Errorf("engine: failed to delete decayed edge (%d, %d): %w", r.Person1, r.Person2, err)
			}
			continue
		}
		r.Value = decayed
		r.Sign = e.comps.Model.Classify(decayed)
		if err := e.store.UpsertRelationship(ctx, r); err != nil {
			return fmt.Errorf("engine: failed to store decayed edge (%d, %d): %w", r.Person1, r.Person2, err)
		}
	}
	return nil
}

// Statistics takes a full-scan snapshot of the graph. Incomplete triangles
// count toward the total but not toward the balance ratio.
func (e *Engine) Statistics(ctx context.Context) (types.GraphStats, error) {
	numPeople, err := e.store.CountPeople(ctx)
	if err != nil {
		return types.GraphStats{}, fmt.Errorf("engine: failed to count people: %w", err)
	}
	counts, err := e.store.CountBySign(ctx)
	if err != nil {
		return types.GraphStats{}, fmt.Errorf("engine: failed to count relationships: %w", err)
	}
	triangles, err := e.store.Triangles(ctx)
	if err != nil {
		return types.GraphStats{}, fmt.Errorf("engine: failed to enumerate triangles: %w", err)
	}

	stats := types.GraphStats{
		NumPeople:      numPeople,
		Relationships:  counts,
		TotalTriangles: len(triangles),
	}
	for _, t := range triangles {
		switch e.comps.Evaluator.Evaluate(t.E1, t.E2, t.E3) {
		case types.VerdictBalanced:
			stats.BalancedTriangles++
		case types.VerdictUnbalanced:
			stats.UnbalancedTriangles++
		}
	}
	if judged := stats.BalancedTriangles + stats.UnbalancedTriangles; judged > 0 {
		stats.BalanceRatio = float64(stats.BalancedTriangles) / float64(judged)
	}
	return stats, nil
}

// NodeStatuses classifies every person for display: "unbalanced" if any of
// their triangles is unbalanced, "balanced" if they sit in at least one
// judged triangle and none are unbalanced, "none" otherwise.
func (e *Engine) NodeStatuses(ctx context.Context) (map[int]string, error) {
	people, err := e.store.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to list people: %w", err)
	}
	triangles, err := e.store.Triangles(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to enumerate triangles: %w", err)
	}

	statuses := make(map[int]string, len(people))
	for _, id := range people {
		statuses[id] = "none"
	}
	mark := func(id int, status string) {
		if statuses[id] != "unbalanced" {
			statuses[id] = status
		}
	}
	for _, t := range triangles {
		switch e.comps.Evaluator.Evaluate(t.E1, t.E2, t.E3) {
		case types.VerdictBalanced:
			mark(t.N1, "balanced")
			mark(t.N2, "balanced")
			mark(t.N3, "balanced")
		case types.VerdictUnbalanced:
			statuses[t.N1] = "unbalanced"
			statuses[t.N2] = "unbalanced"
			statuses[t.N3] = "unbalanced"
		}
	}
	return statuses, nil
}

// Reset clears the graph entirely.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("engine: failed to reset graph: %w", err)
	}
	return nil
}
