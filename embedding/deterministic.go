package embedding

import (
	"context"
	"math"
	"math/rand"
)

// DeterministicGenerator produces pseudo-random unit vectors seeded by the
// text content, so equal inputs always embed identically. It stands in for a
// real embedding model in tests, demos and offline runs; the vectors carry no
// semantic meaning.
type DeterministicGenerator struct {
	dimensions int
}

// DefaultDimensions matches the width of OpenAI's small embedding models.
const DefaultDimensions = 1536

// NewDeterministicGenerator constructs a generator emitting vectors of the
// given width; dimensions <= 0 selects DefaultDimensions.
func NewDeterministicGenerator(dimensions int) *DeterministicGenerator {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &DeterministicGenerator{dimensions: dimensions}
}

// Embed implements Generator.
func (g *DeterministicGenerator) Embed(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = g.vector(text)
	}
	return vectors, nil
}

func (g *DeterministicGenerator) vector(text string) []float64 {
	var seed int64
	for _, r := range text {
		seed += int64(r)
	}
	rng := rand.New(rand.NewSource(seed))

	v := make([]float64, g.dimensions)
	var magnitude float64
	for i := range v {
		v[i] = rng.NormFloat64()
		magnitude += v[i] * v[i]
	}
	magnitude = math.Sqrt(magnitude)
	if magnitude == 0 {
		return v
	}
	for i := range v {
		v[i] /= magnitude
	}
	return v
}
