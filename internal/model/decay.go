package model

import "math"

// snapEpsilon is the magnitude below which exponentially decayed values
// snap to zero instead of shrinking forever.
const snapEpsilon = 0.001

// DecayMechanism applies passive per-iteration drift to a relationship
// value, once per relationship per iteration after actions. Decay never
// deletes a record itself; the engine removes records whose decayed value
// crosses the neutral boundary.
type DecayMechanism interface {
	// Name returns the registry name of this mechanism.
	Name() string

	// Apply returns the value after one iteration of drift.
	Apply(value float64) float64
}

// NoDecay leaves values untouched. The engine skips the decay pass
// entirely when this mechanism is configured.
type NoDecay struct{}

func (NoDecay) Name() string { return "none" }

func (NoDecay) Apply(v float64) float64 { return v }

// LinearDecay moves values toward zero by a fixed Rate per iteration,
// clamped so they never overshoot.
type LinearDecay struct {
	Rate float64
}

// NewLinearDecay applies the default rate (0.01) when rate is zero.
func NewLinearDecay(rate float64) LinearDecay {
	if rate == 0 {
		rate = 0.01
	}
	return LinearDecay{Rate: rate}
}

func (LinearDecay) Name() string { return "linear" }

func (d LinearDecay) Apply(v float64) float64 {
	switch {
	case v > 0:
		return math.Max(0, v-d.Rate)
	case v < 0:
		return math.Min(0, v+d.Rate)
	default:
		return v
	}
}

// ExponentialDecay halves a value's magnitude every HalfLife iterations,
// preserving its sign. Stronger relationships lose more per iteration in
// absolute terms but persist longer overall.
type ExponentialDecay struct {
	HalfLife float64
	factor   float64
}

// NewExponentialDecay applies the default half-life (50 iterations) when
// halfLife is zero.
func NewExponentialDecay(halfLife float64) ExponentialDecay {
	if halfLife <= 0 {
		halfLife = 50.0
	}
	return ExponentialDecay{
		HalfLife: halfLife,
		factor:   math.Pow(0.5, 1.0/halfLife),
	}
}

func (ExponentialDecay) Name() string { return "exponential" }

func (d ExponentialDecay) Apply(v float64) float64 {
	nv := v * d.factor
	if math.Abs(nv) < snapEpsilon {
		return 0
	}
	return nv
}

// AsymmetricDecay drains positive and negative values at different rates.
// The defaults model grudges outlasting friendships.
type AsymmetricDecay struct {
	PositiveRate float64
	NegativeRate float64
}

// NewAsymmetricDecay applies the default rates (positive 0.02, negative
// 0.005) for zero-valued fields.
func NewAsymmetricDecay(positiveRate, negativeRate float64) AsymmetricDecay {
	if positiveRate == 0 {
		positiveRate = 0.02
	}
	if negativeRate == 0 {
		negativeRate = 0.005
	}
	return AsymmetricDecay{PositiveRate: positiveRate, NegativeRate: negativeRate}
}

func (AsymmetricDecay) Name() string { return "asymmetric" }

func (d AsymmetricDecay) Apply(v float64) float64 {
	switch {
	case v > 0:
		return math.Max(0, v-d.PositiveRate)
	case v < 0:
		return math.Min(0, v+d.NegativeRate)
	default:
		return v
	}
}
