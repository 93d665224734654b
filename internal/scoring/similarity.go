package scoring

import (
	"math"

	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

// maxDistance is the Euclidean distance between the all-zero vector and a
// vector with every trait at roster.MaxTraitValue.
var maxDistance = math.Sqrt(float64(traits.Count) * roster.MaxTraitValue * roster.MaxTraitValue)

// Cosine returns dot(a,b) / (|a|·|b|). It is 0 when either vector has no
// signal, never NaN.
func Cosine(a, b traits.Vector) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizedEuclidean maps distance onto [0,1]: 1 for identical vectors,
// 0 at the maximum possible distance.
func NormalizedEuclidean(a, b traits.Vector) float64 {
	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return 1 - math.Sqrt(sumSq)/maxDistance
}

// Similarity holds both metric components and their blend.
type Similarity struct {
	Cosine    float64 `json:"cosine"`
	Euclidean float64 `json:"euclidean"`
	Blended   float64 `json:"blended"`
}

// Compare computes the blended similarity between a user vector and a
// profile's reference vector. Cosine rewards the same emphasis pattern,
// Euclidean rewards the same absolute level.
func (w BlendWeights) Compare(user, profile traits.Vector) Similarity {
	cos := Cosine(user, profile)
	euc := NormalizedEuclidean(user, profile)
	return Similarity{
		Cosine:    cos,
		Euclidean: euc,
		Blended:   cos*w.Cosine + euc*w.Euclidean,
	}
}
