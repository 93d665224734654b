package scoring

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

// ErrInvalidTierTable is returned when the tier cascade is empty or out of order.
var ErrInvalidTierTable = errors.New("invalid tier table")

// Tier is a resolved rank. Rank 0 is the most exclusive tier.
type Tier struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// Title renders the tier for a profile category, e.g. "Grade 1 Curse".
func (t Tier) Title(c roster.Category) string {
	if c == roster.CategoryCurse {
		return t.Name + " Curse"
	}
	return t.Name + " Sorcerer"
}

// TierTable is an ordered cascade of (peak, total) thresholds, most
// exclusive first. The last row is the floor.
type TierTable struct {
	rows []config.TierDef
}

// NewTierTable validates the cascade. Thresholds must be non-increasing down
// the table so that a stronger aggregate never lands in a lower tier.
func NewTierTable(defs []config.TierDef) (*TierTable, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidTierTable)
	}
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: tier %d has no name", ErrInvalidTierTable, i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidTierTable, d.Name)
		}
		seen[d.Name] = true
		if d.MinPeak < 0 || d.MinTotal < 0 {
			return nil, fmt.Errorf("%w: tier %q has negative threshold", ErrInvalidTierTable, d.Name)
		}
		if i > 0 {
			prev := defs[i-1]
			if d.MinPeak > prev.MinPeak || d.MinTotal > prev.MinTotal {
				return nil, fmt.Errorf("%w: tier %q is stricter than %q above it", ErrInvalidTierTable, d.Name, prev.Name)
			}
		}
	}
	rows := make([]config.TierDef, len(defs))
	copy(rows, defs)
	return &TierTable{rows: rows}, nil
}

// Classify returns the first tier whose peak and total thresholds are both
// met by the raw aggregate, or the floor tier when none match.
func (t *TierTable) Classify(raw traits.Vector) Tier {
	peak := raw.Max()
	total := raw.Sum()
	for i, row := range t.rows {
		if peak >= row.MinPeak && total >= row.MinTotal {
			return Tier{Name: row.Name, Rank: i}
		}
	}
	last := len(t.rows) - 1
	return Tier{Name: t.rows[last].Name, Rank: last}
}

// Names lists tier names from most to least exclusive.
func (t *TierTable) Names() []string {
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Name
	}
	return out
}
