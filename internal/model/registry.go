package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PresetParams carries the numeric knobs a preset may set. Zero values
// mean "use the variant's default".
type PresetParams struct {
	MaxValue         float64 `yaml:"max_value"`
	NeutralThreshold float64 `yaml:"neutral_threshold"`
	MinStrength      float64 `yaml:"min_strength"`
	Tolerance        float64 `yaml:"tolerance"`
	ProductThreshold float64 `yaml:"product_threshold"`
	AdjustmentSize   float64 `yaml:"adjustment_size"`
	StrengthenAmount float64 `yaml:"strengthen_amount"`
	DecayRate        float64 `yaml:"decay_rate"`
	HalfLife         float64 `yaml:"half_life"`
	PositiveRate     float64 `yaml:"positive_rate"`
	NegativeRate     float64 `yaml:"negative_rate"`
}

// PresetSpec names one variant for each pluggable component. A spec is
// resolved once at configuration load and the resulting Components stay
// fixed for the lifetime of the run.
type PresetSpec struct {
	RelationshipModel string       `yaml:"relationship_model"`
	BalanceRule       string       `yaml:"balance_rule"`
	ActionStrategy    string       `yaml:"action_strategy"`
	Decay             string       `yaml:"decay"`
	Params            PresetParams `yaml:"params"`
}

// Components is a resolved preset: one concrete variant per component.
type Components struct {
	Preset    string
	Model     RelationshipModel
	Evaluator BalanceEvaluator
	Strategy  ActionStrategy
	Decay     DecayMechanism
}

// Describe returns a human-readable summary of the resolved components.
func (c Components) Describe() map[string]string {
	return map[string]string{
		"preset":             c.Preset,
		"relationship_model": c.Model.Name(),
		"balance_rule":       c.Evaluator.Name(),
		"action_strategy":    c.Strategy.Name(),
		"decay":              c.Decay.Name(),
	}
}

// builtinPresets mirrors the named model configurations the simulator
// ships with. A YAML presets file can add to or override these.
var builtinPresets = map[string]PresetSpec{
	"classic": {
		RelationshipModel: "discrete",
		BalanceRule:       "classic",
		ActionStrategy:    "classic",
		Decay:             "none",
	},
	"continuous_closeness": {
		RelationshipModel: "continuous",
		BalanceRule:       "triangle_inequality",
		ActionStrategy:    "conservative",
		Decay:             "linear",
		Params: PresetParams{
			MaxValue:         1.0,
			NeutralThreshold: 0.05,
			MinStrength:      0.1,
			Tolerance:        0.01,
			AdjustmentSize:   0.15,
			DecayRate:        0.01,
		},
	},
	"bipolar_weighted": {
		RelationshipModel: "bipolar",
		BalanceRule:       "product",
		ActionStrategy:    "proactive",
		Decay:             "exponential",
		Params: PresetParams{
			MaxValue:         1.0,
			NeutralThreshold: 0.05,
			MinStrength:      0.05,
			ProductThreshold: 0.01,
			StrengthenAmount: 0.2,
			HalfLife:         50.0,
		},
	},
	"grudge_model": {
		RelationshipModel: "bipolar",
		BalanceRule:       "product",
		ActionStrategy:    "balanced",
		Decay:             "asymmetric",
		Params: PresetParams{
			MaxValue:         1.0,
			NeutralThreshold: 0.05,
			MinStrength:      0.05,
			ProductThreshold: 0.01,
			PositiveRate:     0.03,
			NegativeRate:     0.005,
		},
	},
}

// PresetNames returns the names of the built-in presets.
func PresetNames() []string {
	names := make([]string, 0, len(builtinPresets))
	for name := range builtinPresets {
		names = append(names, name)
	}
	return names
}

// LookupPreset returns the built-in preset spec for name.
func LookupPreset(name string) (PresetSpec, error) {
	spec, ok := builtinPresets[name]
	if !ok {
		return PresetSpec{}, fmt.Errorf("model: unknown preset %q (available: %v)", name, PresetNames())
	}
	return spec, nil
}

// LoadPresetsFile reads additional named presets from a YAML document of
// the form:
//
//	my_preset:
//	  relationship_model: bipolar
//	  balance_rule: product
//	  action_strategy: classic
//	  decay: none
//	  params:
//	    neutral_threshold: 0.05
func LoadPresetsFile(path string) (map[string]PresetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read presets file: %w", err)
	}
	presets := make(map[string]PresetSpec)
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("model: parse presets file %s: %w", path, err)
	}
	return presets, nil
}

// Resolve constructs the concrete components a preset spec names. Unknown
// variant names are configuration errors and reject the whole spec before
// anything is built.
func Resolve(name string, spec PresetSpec) (Components, error) {
	m, err := resolveRelationshipModel(spec)
	if err != nil {
		return Components{}, err
	}
	eval, err := resolveBalanceRule(spec)
	if err != nil {
		return Components{}, err
	}
	strat, err := resolveActionStrategy(spec)
	if err != nil {
		return Components{}, err
	}
	decay, err := resolveDecay(spec)
	if err != nil {
		return Components{}, err
	}
	return Components{Preset: name, Model: m, Evaluator: eval, Strategy: strat, Decay: decay}, nil
}

// ResolvePreset resolves a built-in preset by name.
func ResolvePreset(name string) (Components, error) {
	spec, err := LookupPreset(name)
	if err != nil {
		return Components{}, err
	}
	return Resolve(name, spec)
}

func resolveRelationshipModel(spec PresetSpec) (RelationshipModel, error) {
	p := spec.Params
	switch spec.RelationshipModel {
	case "discrete", "":
		return DiscreteModel{}, nil
	case "continuous":
		return NewContinuousModel(p.MaxValue, p.NeutralThreshold), nil
	case "bipolar":
		return NewBipolarModel(p.MaxValue, p.NeutralThreshold), nil
	default:
		return nil, fmt.Errorf("model: unknown relationship model %q", spec.RelationshipModel)
	}
}

func resolveBalanceRule(spec PresetSpec) (BalanceEvaluator, error) {
	p := spec.Params
	switch spec.BalanceRule {
	case "classic", "":
		return ClassicRule{}, nil
	case "strict_positive":
		return StrictPositiveRule{}, nil
	case "triangle_inequality":
		return NewTriangleInequalityRule(p.MinStrength, p.Tolerance), nil
	case "product":
		return NewProductRule(p.ProductThreshold, p.MinStrength), nil
	default:
		return nil, fmt.Errorf("model: unknown balance rule %q", spec.BalanceRule)
	}
}

func resolveActionStrategy(spec PresetSpec) (ActionStrategy, error) {
	p := spec.Params
	switch spec.ActionStrategy {
	case "classic", "":
		return ClassicStrategy{}, nil
	case "conservative":
		return NewConservativeStrategy(p.AdjustmentSize), nil
	case "aggressive":
		return AggressiveStrategy{}, nil
	case "proactive":
		return NewProactiveStrategy(p.StrengthenAmount), nil
	case "balanced":
		return BalancedStrategy{}, nil
	default:
		return nil, fmt.Errorf("model: unknown action strategy %q", spec.ActionStrategy)
	}
}

func resolveDecay(spec PresetSpec) (DecayMechanism, error) {
	p := spec.Params
	switch spec.Decay {
	case "none", "":
		return NoDecay{}, nil
	case "linear":
		return NewLinearDecay(p.DecayRate), nil
	case "exponential":
		return NewExponentialDecay(p.HalfLife), nil
	case "asymmetric":
		return NewAsymmetricDecay(p.PositiveRate, p.NegativeRate), nil
	default:
		return nil, fmt.Errorf("model: unknown decay mechanism %q", spec.Decay)
	}
}
