package scoring

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

var (
	// ErrInvalidAnswer wraps a contribution that failed validation.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrHiddenWithoutRule is returned when a hidden profile has no exclude
	// rule and could therefore be selected unconditionally.
	ErrHiddenWithoutRule = errors.New("hidden profile without exclude rule")
)

// Engine is the entry point for evaluations. It is built once at startup from
// a roster and the scoring config and is safe for concurrent use.
type Engine struct {
	roster       *roster.Roster
	scorer       *Scorer
	resolver     *Resolver
	tiers        *TierTable
	perAnswerMax float64
	logger       *slog.Logger
}

// NewEngine cross-checks the scoring config against the roster. Any mismatch
// is a configuration defect and is reported here rather than at match time.
func NewEngine(r *roster.Roster, cfg config.ScoringConfig, logger *slog.Logger) (*Engine, error) {
	if r == nil || r.Len() == 0 {
		return nil, roster.ErrEmptyRoster
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	blend := BlendFromConfig(cfg.Blend)
	if err := blend.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}

	rules, err := CompileRules(cfg.Eligibility)
	if err != nil {
		return nil, err
	}
	gates := make(map[string]Gate, len(rules))
	for _, rule := range rules {
		if !r.Has(rule.ProfileID) {
			return nil, fmt.Errorf("%w: eligibility rule targets %q", roster.ErrUnknownProfile, rule.ProfileID)
		}
		gates[rule.ProfileID] = rule.Gate
	}

	selectable := 0
	for _, p := range r.All() {
		if p.Hidden && gates[p.ID] != GateExclude {
			return nil, fmt.Errorf("%w: %s", ErrHiddenWithoutRule, p.ID)
		}
		if gates[p.ID] != GateExclude {
			selectable++
		}
	}
	// Excluded profiles can become eligible, but a roster where every entry
	// is behind an exclude gate can leave nothing to select.
	if selectable == 0 {
		return nil, fmt.Errorf("%w: every profile has an exclude rule", ErrNoSelectableProfile)
	}

	tiers, err := NewTierTable(cfg.Tiers)
	if err != nil {
		return nil, err
	}

	resolver := NewResolver(rules)
	logger.Info("scoring engine ready",
		"roster_version", r.Version(),
		"profiles", r.Len(),
		"rules", len(rules),
		"tiers", len(cfg.Tiers),
	)
	return &Engine{
		roster:       r,
		scorer:       NewScorer(blend, cfg.BoostPerHit, cfg.TopTraits, resolver, logger),
		resolver:     resolver,
		tiers:        tiers,
		perAnswerMax: cfg.PerAnswerMax,
		logger:       logger,
	}, nil
}

func (e *Engine) Roster() *roster.Roster { return e.roster }

func (e *Engine) Tiers() *TierTable { return e.tiers }

func (e *Engine) PerAnswerMax() float64 { return e.perAnswerMax }

// ValidateAnswers checks every contribution against the per-answer maximum
// and that every boost target exists in the roster.
func (e *Engine) ValidateAnswers(answers []traits.Contribution) error {
	for i, a := range answers {
		if err := a.Validate(e.perAnswerMax); err != nil {
			return fmt.Errorf("%w: answer %d: %w", ErrInvalidAnswer, i, err)
		}
		for _, id := range a.Boost {
			if !e.roster.Has(id) {
				return fmt.Errorf("%w: answer %d: %w: boost target %q", ErrInvalidAnswer, i, roster.ErrUnknownProfile, id)
			}
		}
	}
	return nil
}

// ComputeAggregateScores returns the raw per-trait sum of the answers.
func (e *Engine) ComputeAggregateScores(answers []traits.Contribution) (traits.Vector, error) {
	if err := e.ValidateAnswers(answers); err != nil {
		return traits.Vector{}, err
	}
	return Accumulate(answers), nil
}

// FindBestMatch returns the best-fitting profile for a completed answer
// sequence. It always names a profile from the roster.
func (e *Engine) FindBestMatch(answers []traits.Contribution) (*MatchResult, error) {
	if err := e.ValidateAnswers(answers); err != nil {
		return nil, err
	}
	raw := Accumulate(answers)
	normalized := Normalize(raw, len(answers), e.perAnswerMax)
	return e.scorer.FindBestMatch(e.roster, raw, normalized, BoostCounts(answers))
}

// DetermineTier classifies the raw aggregate of an answer sequence.
func (e *Engine) DetermineTier(answers []traits.Contribution) (Tier, error) {
	raw, err := e.ComputeAggregateScores(answers)
	if err != nil {
		return Tier{}, err
	}
	return e.tiers.Classify(raw), nil
}

// Verdicts exposes the eligibility outcome for an answer sequence.
func (e *Engine) Verdicts(answers []traits.Contribution) (map[string]Verdict, error) {
	raw, err := e.ComputeAggregateScores(answers)
	if err != nil {
		return nil, err
	}
	return e.resolver.Resolve(raw), nil
}
