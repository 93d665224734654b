package scoring

import (
	"errors"
	"log/slog"
	"math"

	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

// ErrNoSelectableProfile is returned when every profile was excluded.
var ErrNoSelectableProfile = errors.New("no selectable profile")

// CandidateResult captures how one roster entry was scored.
type CandidateResult struct {
	ProfileID  string     `json:"profile_id"`
	Similarity Similarity `json:"similarity"`
	Boosts     int        `json:"boosts"`
	BoostScore float64    `json:"boost_score"`
	Bonus      float64    `json:"bonus"`
	Multiplier float64    `json:"multiplier"`
	FinalScore float64    `json:"final_score"`
	Gated      bool       `json:"gated"`
	Eligible   bool       `json:"eligible"`
	Skipped    bool       `json:"skipped"`
	Reason     string     `json:"reason,omitempty"`
}

// MatchResult is the outcome of one evaluation. It is never mutated after
// FindBestMatch returns it.
type MatchResult struct {
	ProfileID    string            `json:"profile_id"`
	Score        float64           `json:"score"`
	ScorePercent int               `json:"score_percent"`
	TopTraits    []traits.Score    `json:"top_traits"`
	Aggregate    traits.Vector     `json:"aggregate"`
	Normalized   traits.Vector     `json:"normalized"`
	Candidates   []CandidateResult `json:"candidates,omitempty"`
}

// Scorer ranks the roster against a normalized user vector.
type Scorer struct {
	blend       BlendWeights
	boostPerHit float64
	topTraits   int
	resolver    *Resolver
	logger      *slog.Logger
}

// NewScorer creates a Scorer with the given weights and rule table.
func NewScorer(blend BlendWeights, boostPerHit float64, topTraits int, resolver *Resolver, logger *slog.Logger) *Scorer {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		blend:       blend,
		boostPerHit: boostPerHit,
		topTraits:   topTraits,
		resolver:    resolver,
		logger:      logger,
	}
}

// ScoreCandidate computes one profile's final score.
//
//	eligible or unruled:  similarity + boostPerHit*boosts + bonus
//	ineligible, penalize: similarity * penalty (boosts not applied)
//	ineligible, exclude:  skipped
func (s *Scorer) ScoreCandidate(p roster.Profile, normalized traits.Vector, boosts int, verdict *Verdict) CandidateResult {
	sim := s.blend.Compare(normalized, p.Traits)
	result := CandidateResult{
		ProfileID:  p.ID,
		Similarity: sim,
		Boosts:     boosts,
		Multiplier: 1.0,
		Eligible:   true,
	}

	if verdict != nil {
		result.Gated = true
		result.Eligible = verdict.Eligible
		result.Reason = verdict.Reason
	}

	switch {
	case verdict != nil && verdict.Excluded():
		result.Skipped = true
		result.Multiplier = 0
		return result
	case verdict != nil && !verdict.Eligible:
		result.Multiplier = verdict.Multiplier
		result.FinalScore = sim.Blended * verdict.Multiplier
		return result
	}

	result.BoostScore = s.boostPerHit * float64(boosts)
	if verdict != nil {
		result.Bonus = verdict.Bonus
	}
	result.FinalScore = sim.Blended + result.BoostScore + result.Bonus
	return result
}

// FindBestMatch scans the roster once, in order, and keeps the highest final
// score. Only a strictly higher score replaces the current best, so ties go
// to the earlier profile.
func (s *Scorer) FindBestMatch(r *roster.Roster, raw, normalized traits.Vector, boosts map[string]int) (*MatchResult, error) {
	verdicts := s.resolver.Resolve(raw)
	for id, v := range verdicts {
		s.logger.Debug("eligibility verdict",
			"profile", id,
			"eligible", v.Eligible,
			"gate", string(v.Gate),
			"reason", v.Reason,
		)
	}

	profiles := r.All()
	candidates := make([]CandidateResult, 0, len(profiles))
	best := -1
	for _, p := range profiles {
		var verdict *Verdict
		if v, ok := verdicts[p.ID]; ok {
			verdict = &v
		}
		c := s.ScoreCandidate(p, normalized, boosts[p.ID], verdict)
		candidates = append(candidates, c)
		if c.Skipped {
			continue
		}
		if best == -1 || c.FinalScore > candidates[best].FinalScore {
			best = len(candidates) - 1
		}
	}
	if best == -1 {
		return nil, ErrNoSelectableProfile
	}

	winner := candidates[best]
	return &MatchResult{
		ProfileID:    winner.ProfileID,
		Score:        winner.FinalScore,
		ScorePercent: displayPercent(winner.FinalScore),
		TopTraits:    raw.Top(s.topTraits),
		Aggregate:    raw,
		Normalized:   normalized,
		Candidates:   candidates,
	}, nil
}

// displayPercent scales a final score to a whole percentage. Bonuses can push
// the score past 1.0; the cap at 100 is intentional.
func displayPercent(score float64) int {
	return int(clamp(math.Round(score*100), 0, 100))
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
