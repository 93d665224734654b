package traits

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Vector holds one score per trait. The dimension is fixed by the type, so
// every vector in the system has the same key set; unset traits are 0.
type Vector [Count]float64

// Score pairs a trait with its value, used for ranked views of a Vector.
type Score struct {
	Trait Trait   `json:"trait"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// FromMap builds a Vector from a partial map. Missing traits stay 0.
func FromMap(m map[Trait]float64) (Vector, error) {
	var v Vector
	for t, val := range m {
		if !t.Valid() {
			return Vector{}, fmt.Errorf("%w: %d", ErrUnknownTrait, int(t))
		}
		v[t] = val
	}
	return v, nil
}

func (v Vector) Get(t Trait) float64 { return v[t] }

func (v *Vector) Set(t Trait, val float64) { v[t] = val }

// Add accumulates other into v in place.
func (v *Vector) Add(other Vector) {
	for i := range v {
		v[i] += other[i]
	}
}

// Sum returns the total across all traits.
func (v Vector) Sum() float64 {
	var total float64
	for _, val := range v {
		total += val
	}
	return total
}

// Max returns the highest single trait value.
func (v Vector) Max() float64 {
	max := v[0]
	for _, val := range v[1:] {
		if val > max {
			max = val
		}
	}
	return max
}

// IsZero reports whether every trait is 0.
func (v Vector) IsZero() bool {
	for _, val := range v {
		if val != 0 {
			return false
		}
	}
	return true
}

// Ranked returns all traits ordered by descending value. Equal values keep
// declaration order.
func (v Vector) Ranked() []Score {
	out := make([]Score, Count)
	for i := range v {
		t := Trait(i)
		out[i] = Score{Trait: t, Label: t.Label(), Value: v[i]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	return out
}

// Top returns the first n entries of Ranked.
func (v Vector) Top(n int) []Score {
	ranked := v.Ranked()
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Map returns the vector keyed by trait id.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, Count)
	for i, val := range v {
		m[traitIDs[i]] = val
	}
	return m
}

// CheckRange verifies every value lies in [0, max].
func (v Vector) CheckRange(max float64) error {
	for i, val := range v {
		if val < 0 || val > max {
			return fmt.Errorf("%w: %s=%g (allowed 0..%g)", ErrValueOutOfRange, Trait(i), val, max)
		}
	}
	return nil
}

func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Map())
}

func (v *Vector) UnmarshalJSON(b []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := parseMap(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Vector) MarshalYAML() (interface{}, error) {
	return v.Map(), nil
}

func (v *Vector) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]float64
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := parseMap(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func parseMap(raw map[string]float64) (Vector, error) {
	var v Vector
	for id, val := range raw {
		t, err := Parse(id)
		if err != nil {
			return Vector{}, err
		}
		v[t] = val
	}
	return v, nil
}
