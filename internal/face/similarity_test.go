package face

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarityIdenticalVectors(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3}
	assert.InDelta(t, 1.0, Similarity(v, v), 1e-9)
}

func TestSimilarityLengthMismatch(t *testing.T) {
	assert.Equal(t, 0.0, Similarity([]float32{1, 2, 3}, []float32{1, 2}))
	assert.Equal(t, 0.0, Similarity(nil, []float32{1}))
	assert.Equal(t, 0.0, Similarity(nil, nil))
}

func TestSimilarityOrthogonalUnitVectors(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	// 1 - sqrt(2)/sqrt(3) ≈ 0.1835
	expected := 1 - math.Sqrt2/math.Sqrt(3)
	got := Similarity(a, b)
	assert.InDelta(t, expected, got, 1e-6)
	assert.Less(t, got, MatchThreshold)
}

func TestSimilarityClampedAtZero(t *testing.T) {
	a := []float32{10, 10}
	b := []float32{-10, -10}
	assert.Equal(t, 0.0, Similarity(a, b))
}

func TestBestMatchSelectsHighestAboveThreshold(t *testing.T) {
	query := []float32{0.5, 0.5, 0.5}
	candidates := []Candidate{
		{ID: 1, Descriptor: []float32{0.9, 0.1, 0.2}},  // low score
		{ID: 2, Descriptor: []float32{0.5, 0.5, 0.5}},  // exact match
		{ID: 3, Descriptor: []float32{0.5, 0.5, 0.55}}, // close but not exact
	}

	match, score, err := BestMatch(query, candidates)
	require.NoError(t, err)
	assert.Equal(t, int64(2), match.ID)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestBestMatchRejectsBelowThreshold(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []Candidate{
		{ID: 1, Descriptor: []float32{0, 1, 0}},
		{ID: 2, Descriptor: []float32{0, 0, 1}},
	}

	_, _, err := BestMatch(query, candidates)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestBestMatchRejectsExactThresholdScore(t *testing.T) {
	// Four unit components against a zero query give distance 2 over
	// sqrt(25), so the similarity is exactly 0.6: every value in the
	// computation is exact in floating point. The boundary score must not
	// log anyone in.
	query := make([]float32, 25)
	boundary := make([]float32, 25)
	for i := 0; i < 4; i++ {
		boundary[i] = 1
	}
	require.Equal(t, float64(MatchThreshold), Similarity(query, boundary))

	_, _, err := BestMatch(query, []Candidate{{ID: 1, Descriptor: boundary}})
	assert.ErrorIs(t, err, ErrNoMatch)

	// One fewer unit component lands strictly above the threshold.
	above := make([]float32, 25)
	for i := 0; i < 3; i++ {
		above[i] = 1
	}
	match, score, err := BestMatch(query, []Candidate{{ID: 2, Descriptor: above}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), match.ID)
	assert.Greater(t, score, float64(MatchThreshold))
}

func TestBestMatchFirstSeenWinsTies(t *testing.T) {
	query := []float32{0.3, 0.3, 0.3}
	same := []float32{0.3, 0.3, 0.3}
	candidates := []Candidate{
		{ID: 7, Descriptor: same},
		{ID: 8, Descriptor: same},
	}

	match, _, err := BestMatch(query, candidates)
	require.NoError(t, err)
	assert.Equal(t, int64(7), match.ID)
}

func TestBestMatchSkipsLengthMismatches(t *testing.T) {
	query := []float32{0.3, 0.3, 0.3}
	candidates := []Candidate{
		{ID: 1, Descriptor: []float32{0.3, 0.3}}, // wrong length, scores 0
		{ID: 2, Descriptor: []float32{0.3, 0.3, 0.3}},
	}

	match, _, err := BestMatch(query, candidates)
	require.NoError(t, err)
	assert.Equal(t, int64(2), match.ID)
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	_, _, err := BestMatch([]float32{1, 2, 3}, nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestRandomEmbedderProducesFixedLength(t *testing.T) {
	embedder := NewRandomEmbedder()
	descriptor, err := embedder.Embed([]byte("fake image bytes"))
	require.NoError(t, err)
	require.Len(t, descriptor, DescriptorLength)
	for _, v := range descriptor {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestRandomEmbedderRejectsEmptyImage(t *testing.T) {
	embedder := NewRandomEmbedder()
	_, err := embedder.Embed(nil)
	assert.Error(t, err)
}
