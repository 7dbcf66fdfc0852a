package model

import (
	"math/rand/v2"
	"testing"

	"github.com/scrypster/triad/pkg/types"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func TestDiscreteClassify(t *testing.T) {
	m := DiscreteModel{}
	if got := m.Classify(1); got != types.SignPositive {
		t.Errorf("Classify(1) = %s", got)
	}
	if got := m.Classify(-1); got != types.SignNegative {
		t.Errorf("Classify(-1) = %s", got)
	}
	if got := m.Classify(0); got != types.SignNeutral {
		t.Errorf("Classify(0) = %s", got)
	}
}

func TestDiscreteSampleRespectsProbabilities(t *testing.T) {
	m := DiscreteModel{}
	rng := testRNG(1)

	var pos, neg, none int
	for i := 0; i < 10000; i++ {
		v, ok := m.Sample(rng, 0.5, 0.3)
		switch {
		case !ok:
			none++
		case v > 0:
			pos++
		default:
			neg++
		}
	}
	// Loose bounds; exact ratios depend on the RNG stream.
	if pos < 4500 || pos > 5500 {
		t.Errorf("positive draws = %d, want ~5000", pos)
	}
	if neg < 2500 || neg > 3500 {
		t.Errorf("negative draws = %d, want ~3000", neg)
	}
	if none < 1500 || none > 2500 {
		t.Errorf("neutral draws = %d, want ~2000", none)
	}
}

func TestDiscreteOtherValueNeverSameClass(t *testing.T) {
	m := DiscreteModel{}
	rng := testRNG(2)
	for _, current := range []float64{1, -1} {
		sawDelete := false
		for i := 0; i < 100; i++ {
			v := m.OtherValue(rng, current)
			if m.Classify(v) == m.Classify(current) {
				t.Fatalf("OtherValue(%g) returned same class value %g", current, v)
			}
			if v == 0 {
				sawDelete = true
			}
		}
		if !sawDelete {
			t.Errorf("OtherValue(%g) never offered deletion in 100 draws", current)
		}
	}
}

func TestContinuousModelHasNoNegatives(t *testing.T) {
	m := NewContinuousModel(1.0, 0.01)
	rng := testRNG(3)

	for i := 0; i < 1000; i++ {
		v, ok := m.Sample(rng, 0.5, 0.4)
		if !ok {
			continue
		}
		if v < 0 {
			t.Fatalf("continuous sample produced negative value %g", v)
		}
		if m.Classify(v) != types.SignPositive {
			t.Fatalf("continuous sample %g did not classify positive", v)
		}
	}
}

func TestContinuousSamplingIsBimodal(t *testing.T) {
	m := NewContinuousModel(1.0, 0.01)
	rng := testRNG(4)

	for i := 0; i < 1000; i++ {
		v := m.NonNeutralValue(rng)
		inLow := v >= 0.1 && v <= 0.3
		inHigh := v >= 0.6 && v <= 0.9
		if !inLow && !inHigh {
			t.Fatalf("sample %g falls outside both modes", v)
		}
	}
}

func TestBipolarClassifyUsesNeutralBand(t *testing.T) {
	m := NewBipolarModel(1.0, 0.05)
	if got := m.Classify(0.04); got != types.SignNeutral {
		t.Errorf("Classify(0.04) = %s, want neutral", got)
	}
	if got := m.Classify(-0.04); got != types.SignNeutral {
		t.Errorf("Classify(-0.04) = %s, want neutral", got)
	}
	if got := m.Classify(0.06); got != types.SignPositive {
		t.Errorf("Classify(0.06) = %s, want positive", got)
	}
	if got := m.Classify(-0.06); got != types.SignNegative {
		t.Errorf("Classify(-0.06) = %s, want negative", got)
	}
}

func TestBipolarSampleNeverNeutral(t *testing.T) {
	m := NewBipolarModel(1.0, 0.05)
	rng := testRNG(5)

	for i := 0; i < 1000; i++ {
		v, ok := m.Sample(rng, 0.4, 0.4)
		if !ok {
			continue
		}
		if m.IsNeutral(v) {
			t.Fatalf("sample produced neutral value %g", v)
		}
		if v > 1 || v < -1 {
			t.Fatalf("sample %g out of range", v)
		}
	}
}

func TestAdjustClamps(t *testing.T) {
	c := NewContinuousModel(1.0, 0.01)
	if got := c.Adjust(0.9, 0.5); got != 1.0 {
		t.Errorf("continuous Adjust(0.9, 0.5) = %g, want 1.0", got)
	}
	if got := c.Adjust(0.1, -0.5); got != 0 {
		t.Errorf("continuous Adjust(0.1, -0.5) = %g, want 0", got)
	}

	b := NewBipolarModel(1.0, 0.05)
	if got := b.Adjust(-0.9, -0.5); got != -1.0 {
		t.Errorf("bipolar Adjust(-0.9, -0.5) = %g, want -1.0", got)
	}

	d := DiscreteModel{}
	if got := d.Adjust(-1, 0.3); got != 1 {
		t.Errorf("discrete Adjust(-1, +) = %g, want 1", got)
	}
	if got := d.Adjust(1, -0.3); got != -1 {
		t.Errorf("discrete Adjust(1, -) = %g, want -1", got)
	}
}
