package scoring

import (
	"fmt"
	"math"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
)

// BlendWeights defines how the two similarity metrics are mixed.
// Both weights must be non-negative and sum to 1.0 (±0.001 tolerance).
type BlendWeights struct {
	Cosine    float64
	Euclidean float64
}

// DefaultBlend returns the tuned 60/40 cosine/euclidean split.
func DefaultBlend() BlendWeights {
	return BlendWeights{
		Cosine:    0.6,
		Euclidean: 0.4,
	}
}

// BlendFromConfig converts the YAML blend section.
func BlendFromConfig(c config.BlendConfig) BlendWeights {
	return BlendWeights{Cosine: c.Cosine, Euclidean: c.Euclidean}
}

// Sum returns the total of both weights.
func (w BlendWeights) Sum() float64 {
	return w.Cosine + w.Euclidean
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w BlendWeights) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("blend weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for _, v := range []float64{w.Cosine, w.Euclidean} {
		if v < 0 {
			return fmt.Errorf("negative blend weight: %f", v)
		}
	}
	return nil
}
