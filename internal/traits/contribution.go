package traits

import (
	"errors"
	"fmt"
)

// ErrEmptyBoostTarget is returned when a boost list contains a blank profile id.
var ErrEmptyBoostTarget = errors.New("empty boost target")

// Contribution is what one chosen answer adds to the aggregate: a partial
// trait vector plus the profiles that get a targeted boost for this choice.
type Contribution struct {
	Traits Vector   `json:"traits" yaml:"traits"`
	Boost  []string `json:"boost,omitempty" yaml:"boost,omitempty"`
}

// Validate rejects negative values, values above perAnswerMax and blank
// boost targets. Unknown trait ids are already rejected while decoding.
func (c Contribution) Validate(perAnswerMax float64) error {
	if err := c.Traits.CheckRange(perAnswerMax); err != nil {
		return err
	}
	for i, id := range c.Boost {
		if id == "" {
			return fmt.Errorf("%w at index %d", ErrEmptyBoostTarget, i)
		}
	}
	return nil
}
