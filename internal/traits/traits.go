package traits

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTrait is returned when a trait id is outside the closed set.
	ErrUnknownTrait = errors.New("unknown trait")
	// ErrValueOutOfRange is returned when a trait value falls outside its allowed range.
	ErrValueOutOfRange = errors.New("trait value out of range")
)

// Trait identifies one dimension of a Vector. The set is closed; the
// declaration order below is also the tie-break order when ranking.
type Trait int

const (
	Passion Trait = iota
	Coolness
	Rationality
	Obsession
	Isolation
	Loyalty
	Pride
	Humor
	Dutifulness
	Defiance
	Instinct
	Intellect

	// Count is the dimensionality shared by every Vector.
	Count = int(Intellect) + 1
)

var traitIDs = [Count]string{
	"passion", "coolness", "rationality", "obsession",
	"isolation", "loyalty", "pride", "humor",
	"dutifulness", "defiance", "instinct", "intellect",
}

var traitLabels = [Count]string{
	"Passion", "Composure", "Rationality", "Obsession",
	"Solitude", "Loyalty", "Pride", "Humor",
	"Duty", "Defiance", "Instinct", "Intellect",
}

var byID = func() map[string]Trait {
	m := make(map[string]Trait, Count)
	for i, id := range traitIDs {
		m[id] = Trait(i)
	}
	return m
}()

// All returns every trait in declaration order.
func All() []Trait {
	out := make([]Trait, Count)
	for i := range out {
		out[i] = Trait(i)
	}
	return out
}

// Parse resolves a trait id such as "pride".
func Parse(id string) (Trait, error) {
	t, ok := byID[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTrait, id)
	}
	return t, nil
}

// Valid reports whether t is a member of the closed set.
func (t Trait) Valid() bool {
	return t >= 0 && int(t) < Count
}

func (t Trait) String() string {
	if !t.Valid() {
		return fmt.Sprintf("trait(%d)", int(t))
	}
	return traitIDs[t]
}

// Label is the human-readable name shown next to a trait.
func (t Trait) Label() string {
	if !t.Valid() {
		return t.String()
	}
	return traitLabels[t]
}

func (t Trait) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTrait, int(t))
	}
	return []byte(traitIDs[t]), nil
}

func (t *Trait) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
