// Package model provides the pluggable pieces of the balance simulation:
// relationship value semantics, triangle balance rules, per-person action
// strategies, and relationship decay. Variants are resolved by name through
// the registry and stay fixed for the lifetime of a run.
package model

import (
	"math"
	"math/rand/v2"

	"github.com/scrypster/triad/pkg/types"
)

// RelationshipModel defines the value semantics of an edge: how values
// classify into signs, how initial values are drawn, and how mutation
// picks replacement values. Implementations are stateless; all randomness
// comes from the injected rand.Rand so runs are reproducible given a seed.
type RelationshipModel interface {
	// Name returns the registry name of this model.
	Name() string

	// Classify maps a value to POSITIVE, NEGATIVE, or NEUTRAL.
	Classify(value float64) types.Sign

	// IsNeutral reports whether the value represents a missing relationship.
	IsNeutral(value float64) bool

	// Sample draws an initial edge value with P(positive)=posProb and
	// P(negative)=negProb; the remainder is neutral. ok is false when no
	// edge should be created.
	Sample(rng *rand.Rand, posProb, negProb float64) (value float64, ok bool)

	// OtherValue draws a replacement for an edge currently holding current.
	// The result never classifies the same as current; a neutral result
	// means the edge should be deleted.
	OtherValue(rng *rand.Rand, current float64) float64

	// NonNeutralValue draws a value for a newly created edge, uniformly
	// among the non-neutral choices the model supports.
	NonNeutralValue(rng *rand.Rand) float64

	// Adjust shifts current by delta, clamped to the model's range.
	Adjust(current, delta float64) float64

	// Range returns the (min, max) bounds of valid values.
	Range() (min, max float64)
}

// DiscreteModel is the classic three-state system: +1, -1, or no edge.
type DiscreteModel struct{}

func (DiscreteModel) Name() string { return "discrete" }

func (DiscreteModel) Classify(v float64) types.Sign {
	switch {
	case v > 0:
		return types.SignPositive
	case v < 0:
		return types.SignNegative
	default:
		return types.SignNeutral
	}
}

func (DiscreteModel) IsNeutral(v float64) bool { return v == 0 }

func (DiscreteModel) Sample(rng *rand.Rand, posProb, negProb float64) (float64, bool) {
	r := rng.Float64()
	switch {
	case r < posProb:
		return 1, true
	case r < posProb+negProb:
		return -1, true
	default:
		return 0, false
	}
}

// OtherValue picks uniformly from {+1, -1, 0} minus the current state, so
// deletion (neutral) is always one of the reachable outcomes.
func (m DiscreteModel) OtherValue(rng *rand.Rand, current float64) float64 {
	cur := m.Classify(current)
	candidates := make([]float64, 0, 2)
	for _, v := range []float64{1, -1, 0} {
		if m.Classify(v) != cur {
			candidates = append(candidates, v)
		}
	}
	return candidates[rng.IntN(len(candidates))]
}

func (DiscreteModel) NonNeutralValue(rng *rand.Rand) float64 {
	if rng.IntN(2) == 0 {
		return 1
	}
	return -1
}

// Adjust flips toward the sign of delta. Discrete values have no magnitude
// to nudge, so any positive delta yields +1 and any negative delta -1.
func (DiscreteModel) Adjust(current, delta float64) float64 {
	if delta > 0 {
		return 1
	}
	if delta < 0 {
		return -1
	}
	return current
}

func (DiscreteModel) Range() (float64, float64) { return -1, 1 }

// ContinuousModel holds sign-free strengths in [0, Max]. Values below
// NeutralThreshold classify as neutral. Negative relationships are not
// representable; sampling skips the negative share.
type ContinuousModel struct {
	Max              float64
	NeutralThreshold float64
}

// NewContinuousModel applies the default bounds (max 1.0, threshold 0.01)
// for zero-valued fields.
func NewContinuousModel(max, threshold float64) ContinuousModel {
	if max <= 0 {
		max = 1.0
	}
	if threshold <= 0 {
		threshold = 0.01
	}
	return ContinuousModel{Max: max, NeutralThreshold: threshold}
}

func (ContinuousModel) Name() string { return "continuous" }

func (m ContinuousModel) Classify(v float64) types.Sign {
	if math.Abs(v) < m.NeutralThreshold {
		return types.SignNeutral
	}
	return types.SignPositive
}

func (m ContinuousModel) IsNeutral(v float64) bool { return math.Abs(v) < m.NeutralThreshold }

// Sample draws from a bimodal distribution (short edges in [0.1, 0.3]*Max,
// long edges in [0.6, 0.9]*Max) so that freshly initialized graphs contain
// triangle-inequality violations for the simulation to resolve.
func (m ContinuousModel) Sample(rng *rand.Rand, posProb, negProb float64) (float64, bool) {
	if rng.Float64() >= posProb {
		// The negative share maps to "no edge" here: this model cannot
		// represent enmity.
		return 0, false
	}
	return m.bimodal(rng), true
}

func (m ContinuousModel) bimodal(rng *rand.Rand) float64 {
	if rng.IntN(2) == 0 {
		return m.Max * (0.1 + 0.2*rng.Float64())
	}
	return m.Max * (0.6 + 0.3*rng.Float64())
}

func (m ContinuousModel) OtherValue(rng *rand.Rand, current float64) float64 {
	for {
		v := m.bimodal(rng)
		if v != current {
			return v
		}
	}
}

func (m ContinuousModel) NonNeutralValue(rng *rand.Rand) float64 { return m.bimodal(rng) }

func (m ContinuousModel) Adjust(current, delta float64) float64 {
	return math.Min(m.Max, math.Max(0, current+delta))
}

func (m ContinuousModel) Range() (float64, float64) { return 0, m.Max }

// BipolarModel holds signed strengths in [-Max, Max] with a neutral band
// of width 2·NeutralThreshold around zero.
type BipolarModel struct {
	Max              float64
	NeutralThreshold float64
}

// NewBipolarModel applies the default bounds (max 1.0, threshold 0.01)
// for zero-valued fields.
func NewBipolarModel(max, threshold float64) BipolarModel {
	if max <= 0 {
		max = 1.0
	}
	if threshold <= 0 {
		threshold = 0.01
	}
	return BipolarModel{Max: max, NeutralThreshold: threshold}
}

func (BipolarModel) Name() string { return "bipolar" }

func (m BipolarModel) Classify(v float64) types.Sign {
	switch {
	case math.Abs(v) < m.NeutralThreshold:
		return types.SignNeutral
	case v > 0:
		return types.SignPositive
	default:
		return types.SignNegative
	}
}

func (m BipolarModel) IsNeutral(v float64) bool { return math.Abs(v) < m.NeutralThreshold }

func (m BipolarModel) Sample(rng *rand.Rand, posProb, negProb float64) (float64, bool) {
	r := rng.Float64()
	switch {
	case r < posProb:
		return m.NeutralThreshold + (m.Max-m.NeutralThreshold)*rng.Float64(), true
	case r < posProb+negProb:
		return -(m.NeutralThreshold + (m.Max-m.NeutralThreshold)*rng.Float64()), true
	default:
		return 0, false
	}
}

func (m BipolarModel) OtherValue(rng *rand.Rand, current float64) float64 {
	for {
		v := m.NonNeutralValue(rng)
		if v != current {
			return v
		}
	}
}

func (m BipolarModel) NonNeutralValue(rng *rand.Rand) float64 {
	v := m.NeutralThreshold + (m.Max-m.NeutralThreshold)*rng.Float64()
	if rng.IntN(2) == 0 {
		return -v
	}
	return v
}

func (m BipolarModel) Adjust(current, delta float64) float64 {
	return math.Min(m.Max, math.Max(-m.Max, current+delta))
}

func (m BipolarModel) Range() (float64, float64) { return -m.Max, m.Max }
