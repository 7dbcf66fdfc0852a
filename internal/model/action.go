package model

import (
	"math"
	"math/rand/v2"

	"github.com/scrypster/triad/pkg/types"
)

// ActionKind identifies what a person decided to do about their
// unbalanced triangles.
type ActionKind int

const (
	// ActionNone means the person does nothing this iteration.
	ActionNone ActionKind = iota

	// ActionModifyEdge replaces the value of an existing edge. A new value
	// that classifies as neutral means the edge is deleted.
	ActionModifyEdge

	// ActionCreateEdge creates a new edge to a friend-of-friend.
	ActionCreateEdge
)

// Action is the outcome of one strategy decision.
type Action struct {
	Kind     ActionKind
	Person1  int
	Person2  int
	OldValue float64
	NewValue float64
}

// CandidateFunc lazily supplies the friend-of-friend candidates for the
// acting person: 2-hop reachable ids excluding direct neighbors and self.
// Strategies call it only on the code paths that create edges, so the
// engine avoids the 2-hop query for persons that never get that far.
type CandidateFunc func() []int

// ActionStrategy decides whether and how a person acts on their unbalanced
// triangles. The satisfaction rule, that a person with zero unbalanced
// triangles never acts, holds for every strategy except proactive, which
// documents its exception.
type ActionStrategy interface {
	// Name returns the registry name of this strategy.
	Name() string

	// Decide returns the action the person takes, or an ActionNone action.
	Decide(rng *rand.Rand, personID int, unbalanced []types.Triangle, candidates CandidateFunc, actionProb float64, m RelationshipModel) Action
}

// ClassicStrategy implements the baseline policy: act with probability
// actionProb, then flip a fair coin between modifying one edge of a random
// unbalanced triangle and creating an edge to a random friend-of-friend.
type ClassicStrategy struct{}

func (ClassicStrategy) Name() string { return "classic" }

func (ClassicStrategy) Decide(rng *rand.Rand, personID int, unbalanced []types.Triangle, candidates CandidateFunc, actionProb float64, m RelationshipModel) Action {
	if len(unbalanced) == 0 {
		return Action{Kind: ActionNone}
	}
	if rng.Float64() >= actionProb {
		return Action{Kind: ActionNone}
	}
	if rng.IntN(2) == 0 {
		return modifyRandomEdge(rng, unbalanced, m)
	}
	return createRandomEdge(rng, personID, candidates, m)
}

// ConservativeStrategy only nudges existing edges: it acts half as often
// as the configured probability and adjusts one edge of a random
// unbalanced triangle by a small fixed amount instead of rerolling it.
type ConservativeStrategy struct {
	Adjustment float64
}

// NewConservativeStrategy applies the default adjustment (0.2) when the
// given size is zero.
func NewConservativeStrategy(adjustment float64) ConservativeStrategy {
	if adjustment == 0 {
		adjustment = 0.2
	}
	return ConservativeStrategy{Adjustment: adjustment}
}

func (ConservativeStrategy) Name() string { return "conservative" }

func (s ConservativeStrategy) Decide(rng *rand.Rand, personID int, unbalanced []types.Triangle, candidates CandidateFunc, actionProb float64, m RelationshipModel) Action {
	if len(unbalanced) == 0 {
		return Action{Kind: ActionNone}
	}
	if rng.Float64() >= actionProb*0.5 {
		return Action{Kind: ActionNone}
	}
	tri := unbalanced[rng.IntN(len(unbalanced))]
	edge := tri.Edges()[rng.IntN(3)]
	return Action{
		Kind:     ActionModifyEdge,
		Person1:  edge.Person1,
		Person2:  edge.Person2,
		OldValue: edge.Value,
		NewValue: m.Adjust(edge.Value, s.Adjustment),
	}
}

// AggressiveStrategy prefers building new connections over repairing old
// ones: 70% of its actions create edges.
type AggressiveStrategy struct{}

func (AggressiveStrategy) Name() string { return "aggressive" }

func (AggressiveStrategy) Decide(rng *rand.Rand, personID int, unbalanced []types.Triangle, candidates CandidateFunc, actionProb float64, m RelationshipModel) Action {
	if len(unbalanced) == 0 {
		return Action{Kind: ActionNone}
	}
	if rng.Float64() >= actionProb {
		return Action{Kind: ActionNone}
	}
	if rng.Float64() < 0.7 {
		return createRandomEdge(rng, personID, candidates, m)
	}
	return modifyRandomEdge(rng, unbalanced, m)
}

// ProactiveStrategy strengthens a triangle edge when unbalanced triangles
// exist. As the documented exception to the satisfaction rule, it also
// reaches out to a friend-of-friend with 10% of the action probability
// when none do.
type ProactiveStrategy struct {
	Strengthen float64
}

// NewProactiveStrategy applies the default strengthen amount (0.3) when
// the given amount is zero.
func NewProactiveStrategy(strengthen float64) ProactiveStrategy {
	if strengthen == 0 {
		strengthen = 0.3
	}
	return ProactiveStrategy{Strengthen: strengthen}
}

func (ProactiveStrategy) Name() string { return "proactive" }

func (s ProactiveStrategy) Decide(rng *rand.Rand, personID int, unbalanced []types.Triangle, candidates CandidateFunc, actionProb float64, m RelationshipModel) Action {
	if len(unbalanced) == 0 {
		if rng.Float64() >= actionProb*0.1 {
			return Action{Kind: ActionNone}
		}
		return createRandomEdge(rng, personID, candidates, m)
	}
	if rng.Float64() >= actionProb {
		return Action{Kind: ActionNone}
	}
	tri := unbalanced[rng.IntN(len(unbalanced))]
	edge := tri.Edges()[rng.IntN(3)]
	return Action{
		Kind:     ActionModifyEdge,
		Person1:  edge.Person1,
		Person2:  edge.Person2,
		OldValue: edge.Value,
		NewValue: m.Adjust(edge.Value, s.Strengthen),
	}
}

// BalancedStrategy weights its choices by severity instead of picking
// uniformly: triangles are drawn proportionally to the magnitude of their
// edge-value product, and within the chosen triangle the weakest edge is
// the one rerolled (the cheapest repair).
type BalancedStrategy struct{}

func (BalancedStrategy) Name() string { return "balanced" }

func (BalancedStrategy) Decide(rng *rand.Rand, personID int, unbalanced []types.Triangle, candidates CandidateFunc, actionProb float64, m RelationshipModel) Action {
	if len(unbalanced) == 0 {
		return Action{Kind: ActionNone}
	}
	if rng.Float64() >= actionProb {
		return Action{Kind: ActionNone}
	}

	tri := pickBySeverity(rng, unbalanced)

	// Weakest edge by magnitude.
	edges := tri.Edges()
	weakest := edges[0]
	for _, e := range edges[1:] {
		if math.Abs(e.Value) < math.Abs(weakest.Value) {
			weakest = e
		}
	}
	return Action{
		Kind:     ActionModifyEdge,
		Person1:  weakest.Person1,
		Person2:  weakest.Person2,
		OldValue: weakest.Value,
		NewValue: m.OtherValue(rng, weakest.Value),
	}
}

// pickBySeverity draws a triangle proportionally to |e1·e2·e3|. Falls back
// to a uniform pick when every severity is zero.
func pickBySeverity(rng *rand.Rand, triangles []types.Triangle) types.Triangle {
	total := 0.0
	severities := make([]float64, len(triangles))
	for i, t := range triangles {
		severities[i] = math.Abs(t.E1 * t.E2 * t.E3)
		total += severities[i]
	}
	if total == 0 {
		return triangles[rng.IntN(len(triangles))]
	}
	r := rng.Float64() * total
	for i, s := range severities {
		r -= s
		if r < 0 {
			return triangles[i]
		}
	}
	return triangles[len(triangles)-1]
}

// modifyRandomEdge picks one unbalanced triangle uniformly, one of its
// three edges uniformly, and rerolls its value via the model.
func modifyRandomEdge(rng *rand.Rand, unbalanced []types.Triangle, m RelationshipModel) Action {
	tri := unbalanced[rng.IntN(len(unbalanced))]
	edge := tri.Edges()[rng.IntN(3)]
	return Action{
		Kind:     ActionModifyEdge,
		Person1:  edge.Person1,
		Person2:  edge.Person2,
		OldValue: edge.Value,
		NewValue: m.OtherValue(rng, edge.Value),
	}
}

// createRandomEdge picks a friend-of-friend uniformly and assigns a
// non-neutral value. Behaves as ActionNone when no candidates exist.
func createRandomEdge(rng *rand.Rand, personID int, candidates CandidateFunc, m RelationshipModel) Action {
	cands := candidates()
	if len(cands) == 0 {
		return Action{Kind: ActionNone}
	}
	target := cands[rng.IntN(len(cands))]
	return Action{
		Kind:     ActionCreateEdge,
		Person1:  personID,
		Person2:  target,
		NewValue: m.NonNeutralValue(rng),
	}
}
