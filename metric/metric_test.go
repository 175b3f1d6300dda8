package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	score, err := CosineSimilarity([]float32{1, 0, 0, 0}, []float32{1, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-6)

	score, err = CosineSimilarity([]float32{1, 0, 0, 0}, []float32{0, 1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, score, 1e-6)

	score, err = CosineSimilarity([]float32{1, 0, 0, 0}, []float32{0.9, 0.1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.993884, score, 1e-5)
}

func TestCosineZeroVector(t *testing.T) {
	score, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestDotProduct(t *testing.T) {
	score, err := DotProduct([]float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 32.0, score, 1e-6)
}

func TestEuclideanDistance(t *testing.T) {
	dist, err := EuclideanDistance([]float32{1, 0, 0, 0}, []float32{0.9, 0.1, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.141421, dist, 1e-5)

	dist, err = EuclideanDistance([]float32{1, 0, 0, 0}, []float32{1, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, dist, 1e-6)
}

func TestDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = DotProduct([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = EuclideanDistance([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestParseType(t *testing.T) {
	typ, ok := ParseType("cosine")
	require.True(t, ok)
	assert.Equal(t, Cosine, typ)

	_, ok = ParseType("jaccard")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 1.0, Magnitude(v), 1e-6)
}
