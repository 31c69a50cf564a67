package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicGeneratorIsStable(t *testing.T) {
	g := NewDeterministicGenerator(32)

	first, err := g.Embed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	second, err := g.Embed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)

	assert.Equal(t, first, second, "same text must embed identically")
	assert.NotEqual(t, first[0], first[1], "different texts get different vectors")
}

func TestDeterministicGeneratorUnitVectors(t *testing.T) {
	g := NewDeterministicGenerator(64)
	vectors, err := g.Embed(context.Background(), []string{"normalize me"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Len(t, vectors[0], 64)

	var magnitude float64
	for _, v := range vectors[0] {
		magnitude += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-9)
}

func TestDeterministicGeneratorDefaultDimensions(t *testing.T) {
	g := NewDeterministicGenerator(0)
	vectors, err := g.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, vectors[0], DefaultDimensions)
}
