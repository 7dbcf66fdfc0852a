package model

import (
	"math"
	"testing"
)

func TestNoDecayLeavesValuesAlone(t *testing.T) {
	d := NoDecay{}
	for _, v := range []float64{1, -1, 0.5, 0} {
		if got := d.Apply(v); got != v {
			t.Errorf("Apply(%g) = %g", v, got)
		}
	}
}

func TestLinearDecayMovesTowardZero(t *testing.T) {
	d := NewLinearDecay(0.1)
	if got := d.Apply(0.5); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("Apply(0.5) = %g, want 0.4", got)
	}
	if got := d.Apply(-0.5); math.Abs(got+0.4) > 1e-9 {
		t.Errorf("Apply(-0.5) = %g, want -0.4", got)
	}
	// Never overshoots zero.
	if got := d.Apply(0.05); got != 0 {
		t.Errorf("Apply(0.05) = %g, want 0", got)
	}
	if got := d.Apply(-0.05); got != 0 {
		t.Errorf("Apply(-0.05) = %g, want 0", got)
	}
}

func TestExponentialDecayHalvesAtHalfLife(t *testing.T) {
	d := NewExponentialDecay(50)
	v := 1.0
	for i := 0; i < 50; i++ {
		v = d.Apply(v)
	}
	if math.Abs(v-0.5) > 0.01 {
		t.Errorf("value after one half-life = %g, want ~0.5", v)
	}
}

func TestExponentialDecaySnapsToZero(t *testing.T) {
	d := NewExponentialDecay(50)
	if got := d.Apply(0.0005); got != 0 {
		t.Errorf("Apply(0.0005) = %g, want snap to 0", got)
	}
	if got := d.Apply(-0.0005); got != 0 {
		t.Errorf("Apply(-0.0005) = %g, want snap to 0", got)
	}
}

func TestExponentialDecayPreservesSign(t *testing.T) {
	d := NewExponentialDecay(50)
	if got := d.Apply(-0.8); got >= 0 {
		t.Errorf("Apply(-0.8) = %g, want negative", got)
	}
}

func TestAsymmetricDecayRates(t *testing.T) {
	d := NewAsymmetricDecay(0.02, 0.005)
	if got := d.Apply(0.5); math.Abs(got-0.48) > 1e-9 {
		t.Errorf("positive Apply(0.5) = %g, want 0.48", got)
	}
	if got := d.Apply(-0.5); math.Abs(got+0.495) > 1e-9 {
		t.Errorf("negative Apply(-0.5) = %g, want -0.495", got)
	}
}

func TestDecayDefaults(t *testing.T) {
	if d := NewLinearDecay(0); d.Rate != 0.01 {
		t.Errorf("linear default rate = %g", d.Rate)
	}
	if d := NewExponentialDecay(0); d.HalfLife != 50.0 {
		t.Errorf("exponential default half-life = %g", d.HalfLife)
	}
	d := NewAsymmetricDecay(0, 0)
	if d.PositiveRate != 0.02 || d.NegativeRate != 0.005 {
		t.Errorf("asymmetric defaults = %g, %g", d.PositiveRate, d.NegativeRate)
	}
}
