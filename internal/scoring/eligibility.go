package scoring

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

// ErrInvalidRule is returned for malformed eligibility rules.
var ErrInvalidRule = errors.New("invalid eligibility rule")

// Shape selects how a rule reads the aggregate vector.
type Shape string

const (
	// ShapeDualDominance: both traits in the top K and each at least
	// ThresholdFraction of the peak trait.
	ShapeDualDominance Shape = "dual_dominance"
	// ShapePrimaryDominance: both traits in the top K and Primary strictly
	// above every other trait.
	ShapePrimaryDominance Shape = "primary_dominance"
)

// Gate decides what happens to a ruled profile that fails its rule.
type Gate string

const (
	GatePenalize Gate = "penalize"
	GateExclude  Gate = "exclude"
)

const (
	defaultTopK              = 3
	defaultThresholdFraction = 0.7
	defaultPenalty           = 0.7
)

// Rule is a compiled eligibility rule for one profile.
type Rule struct {
	ProfileID         string
	Shape             Shape
	Traits            [2]traits.Trait
	Primary           traits.Trait
	TopK              int
	ThresholdFraction float64
	Gate              Gate
	Penalty           float64
	Bonus             float64
}

// Verdict is a rule's outcome for one aggregate vector.
type Verdict struct {
	ProfileID  string  `json:"profile_id"`
	Eligible   bool    `json:"eligible"`
	Gate       Gate    `json:"gate"`
	Multiplier float64 `json:"multiplier"`
	Bonus      float64 `json:"bonus"`
	Reason     string  `json:"reason"`
}

// Excluded reports whether the profile must not be selected at all.
func (v Verdict) Excluded() bool {
	return !v.Eligible && v.Gate == GateExclude
}

// CompileRules parses the YAML rule table. Zero TopK, ThresholdFraction and
// Penalty take their defaults.
func CompileRules(defs []config.EligibilityRule) ([]Rule, error) {
	rules := make([]Rule, 0, len(defs))
	seen := make(map[string]bool, len(defs))

	for _, d := range defs {
		if d.Profile == "" {
			return nil, fmt.Errorf("%w: missing profile", ErrInvalidRule)
		}
		if seen[d.Profile] {
			return nil, fmt.Errorf("%w: %s has more than one rule", ErrInvalidRule, d.Profile)
		}
		seen[d.Profile] = true

		r := Rule{
			ProfileID:         d.Profile,
			Shape:             Shape(d.Shape),
			Gate:              Gate(d.Gate),
			TopK:              d.TopK,
			ThresholdFraction: d.ThresholdFraction,
			Penalty:           d.Penalty,
			Bonus:             d.Bonus,
		}

		if len(d.Traits) != 2 {
			return nil, fmt.Errorf("%w: %s needs exactly two traits, got %d", ErrInvalidRule, d.Profile, len(d.Traits))
		}
		for i, id := range d.Traits {
			t, err := traits.Parse(id)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRule, d.Profile, err)
			}
			r.Traits[i] = t
		}
		if r.Traits[0] == r.Traits[1] {
			return nil, fmt.Errorf("%w: %s names %s twice", ErrInvalidRule, d.Profile, r.Traits[0])
		}

		if r.TopK == 0 {
			r.TopK = defaultTopK
		}
		if r.TopK < 2 || r.TopK > traits.Count {
			return nil, fmt.Errorf("%w: %s top_k %d outside 2..%d", ErrInvalidRule, d.Profile, r.TopK, traits.Count)
		}

		switch r.Shape {
		case ShapeDualDominance:
			if r.ThresholdFraction == 0 {
				r.ThresholdFraction = defaultThresholdFraction
			}
			if r.ThresholdFraction < 0 || r.ThresholdFraction > 1 {
				return nil, fmt.Errorf("%w: %s threshold_fraction %f outside 0..1", ErrInvalidRule, d.Profile, r.ThresholdFraction)
			}
		case ShapePrimaryDominance:
			p, err := traits.Parse(d.Primary)
			if err != nil {
				return nil, fmt.Errorf("%w: %s primary: %w", ErrInvalidRule, d.Profile, err)
			}
			if p != r.Traits[0] && p != r.Traits[1] {
				return nil, fmt.Errorf("%w: %s primary %s is not one of its traits", ErrInvalidRule, d.Profile, p)
			}
			r.Primary = p
		default:
			return nil, fmt.Errorf("%w: %s has unknown shape %q", ErrInvalidRule, d.Profile, d.Shape)
		}

		switch r.Gate {
		case GatePenalize:
			if r.Penalty == 0 {
				r.Penalty = defaultPenalty
			}
			if r.Penalty < 0 || r.Penalty > 1 {
				return nil, fmt.Errorf("%w: %s penalty %f outside 0..1", ErrInvalidRule, d.Profile, r.Penalty)
			}
		case GateExclude:
		default:
			return nil, fmt.Errorf("%w: %s has unknown gate %q", ErrInvalidRule, d.Profile, d.Gate)
		}

		if r.Bonus < 0 {
			return nil, fmt.Errorf("%w: %s bonus must not be negative", ErrInvalidRule, d.Profile)
		}

		rules = append(rules, r)
	}
	return rules, nil
}

// Check evaluates the rule against a raw aggregate vector.
func (r Rule) Check(raw traits.Vector) (bool, string) {
	ranked := raw.Ranked()
	top := make(map[traits.Trait]bool, r.TopK)
	for _, s := range ranked[:r.TopK] {
		top[s.Trait] = true
	}

	a, b := r.Traits[0], r.Traits[1]
	if !top[a] || !top[b] {
		return false, fmt.Sprintf("%s and %s not both in top %d", a, b, r.TopK)
	}

	switch r.Shape {
	case ShapeDualDominance:
		threshold := ranked[0].Value * r.ThresholdFraction
		if raw[a] < threshold || raw[b] < threshold {
			return false, fmt.Sprintf("%s=%g or %s=%g below %.2f of peak", a, raw[a], b, raw[b], r.ThresholdFraction)
		}
		return true, "dual dominance met"
	case ShapePrimaryDominance:
		for i, v := range raw {
			if traits.Trait(i) != r.Primary && v >= raw[r.Primary] {
				return false, fmt.Sprintf("%s is not strictly highest", r.Primary)
			}
		}
		return true, "primary dominance met"
	}
	return false, "unknown shape"
}

// Resolver applies a rule table to aggregate vectors. It is immutable and
// safe for concurrent use.
type Resolver struct {
	rules []Rule
}

func NewResolver(rules []Rule) *Resolver {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Resolver{rules: cp}
}

// Rules returns a copy of the rule table.
func (r *Resolver) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Resolve returns a verdict for every ruled profile, keyed by profile id.
// Profiles without a rule have no entry.
func (r *Resolver) Resolve(raw traits.Vector) map[string]Verdict {
	out := make(map[string]Verdict, len(r.rules))
	for _, rule := range r.rules {
		ok, reason := rule.Check(raw)
		v := Verdict{
			ProfileID:  rule.ProfileID,
			Eligible:   ok,
			Gate:       rule.Gate,
			Multiplier: 1.0,
			Reason:     reason,
		}
		switch {
		case ok:
			v.Bonus = rule.Bonus
		case rule.Gate == GatePenalize:
			v.Multiplier = rule.Penalty
		case rule.Gate == GateExclude:
			v.Multiplier = 0
		}
		out[rule.ProfileID] = v
	}
	return out
}
