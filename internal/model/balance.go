package model

import (
	"math"

	"github.com/scrypster/triad/pkg/types"
)

// BalanceEvaluator classifies a completed triangle's three edge values as
// balanced, unbalanced, or incomplete. Evaluation is pure and
// order-independent in its three inputs.
type BalanceEvaluator interface {
	// Name returns the registry name of this rule.
	Name() string

	// Evaluate classifies the triangle formed by the three edge values.
	Evaluate(e1, e2, e3 float64) types.Verdict
}

// ClassicRule is Heider's structural balance extended with the
// all-negative triangle: balanced iff all three edges are positive, one is
// positive and two are negative, or all three are negative. The only
// remaining complete configuration (two positive, one negative) is
// unbalanced. Any neutral edge makes the triangle incomplete.
type ClassicRule struct{}

func (ClassicRule) Name() string { return "classic" }

func (ClassicRule) Evaluate(e1, e2, e3 float64) types.Verdict {
	var pos, neg int
	for _, v := range [3]float64{e1, e2, e3} {
		switch {
		case v > 0:
			pos++
		case v < 0:
			neg++
		default:
			return types.VerdictIncomplete
		}
	}
	if pos == 3 || (pos == 1 && neg == 2) || neg == 3 {
		return types.VerdictBalanced
	}
	return types.VerdictUnbalanced
}

// StrictPositiveRule counts only all-positive triangles as balanced.
// Models pure friendship clusters.
type StrictPositiveRule struct{}

func (StrictPositiveRule) Name() string { return "strict_positive" }

func (StrictPositiveRule) Evaluate(e1, e2, e3 float64) types.Verdict {
	pos := 0
	for _, v := range [3]float64{e1, e2, e3} {
		switch {
		case v > 0:
			pos++
		case v == 0:
			return types.VerdictIncomplete
		}
	}
	if pos == 3 {
		return types.VerdictBalanced
	}
	return types.VerdictUnbalanced
}

// TriangleInequalityRule judges continuous closeness values: the triangle
// is balanced when each edge is at most the sum of the other two (within
// Tolerance). Edges weaker than MinStrength make the triangle incomplete.
type TriangleInequalityRule struct {
	MinStrength float64
	Tolerance   float64
}

// NewTriangleInequalityRule applies the defaults (min strength 0.01,
// tolerance 0.001) for zero-valued fields.
func NewTriangleInequalityRule(minStrength, tolerance float64) TriangleInequalityRule {
	if minStrength <= 0 {
		minStrength = 0.01
	}
	if tolerance <= 0 {
		tolerance = 0.001
	}
	return TriangleInequalityRule{MinStrength: minStrength, Tolerance: tolerance}
}

func (TriangleInequalityRule) Name() string { return "triangle_inequality" }

func (r TriangleInequalityRule) Evaluate(e1, e2, e3 float64) types.Verdict {
	for _, v := range [3]float64{e1, e2, e3} {
		if v < r.MinStrength {
			return types.VerdictIncomplete
		}
	}
	if e1+e2 >= e3-r.Tolerance && e2+e3 >= e1-r.Tolerance && e3+e1 >= e2-r.Tolerance {
		return types.VerdictBalanced
	}
	return types.VerdictUnbalanced
}

// ProductRule judges bipolar values by the sign of their product, the
// discrete rule's natural continuous extension: a positive product is
// balanced, a negative product unbalanced. Products inside ±Threshold and
// edges weaker than MinStrength are incomplete.
type ProductRule struct {
	Threshold   float64
	MinStrength float64
}

// NewProductRule applies the defaults (threshold 0.001, min strength 0.01)
// for zero-valued fields.
func NewProductRule(threshold, minStrength float64) ProductRule {
	if threshold <= 0 {
		threshold = 0.001
	}
	if minStrength <= 0 {
		minStrength = 0.01
	}
	return ProductRule{Threshold: threshold, MinStrength: minStrength}
}

func (ProductRule) Name() string { return "product" }

func (r ProductRule) Evaluate(e1, e2, e3 float64) types.Verdict {
	for _, v := range [3]float64{e1, e2, e3} {
		if math.Abs(v) < r.MinStrength {
			return types.VerdictIncomplete
		}
	}
	product := e1 * e2 * e3
	switch {
	case product > r.Threshold:
		return types.VerdictBalanced
	case product < -r.Threshold:
		return types.VerdictUnbalanced
	default:
		return types.VerdictIncomplete
	}
}
