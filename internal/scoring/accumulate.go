package scoring

import (
	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

// Accumulate sums every answer's contribution per trait into one raw vector.
func Accumulate(answers []traits.Contribution) traits.Vector {
	var raw traits.Vector
	for _, a := range answers {
		raw.Add(a.Traits)
	}
	return raw
}

// Normalize rescales a raw aggregate onto 0..roster.MaxTraitValue relative to
// the most any trait could have reached over n answers. Zero answers yield
// the zero vector.
func Normalize(raw traits.Vector, n int, perAnswerMax float64) traits.Vector {
	var out traits.Vector
	if n <= 0 || perAnswerMax <= 0 {
		return out
	}
	maxPossible := float64(n) * perAnswerMax
	for i, v := range raw {
		out[i] = v / maxPossible * roster.MaxTraitValue
	}
	return out
}

// BoostCounts counts how many answers named each profile as a boost target.
func BoostCounts(answers []traits.Contribution) map[string]int {
	counts := make(map[string]int)
	for _, a := range answers {
		for _, id := range a.Boost {
			counts[id]++
		}
	}
	return counts
}
