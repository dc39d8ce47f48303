package face

import (
	"errors"
	"math"

	"github.com/viant/vec/search"
)

// MatchThreshold is the similarity cutoff; only a strictly greater score
// counts as a match.
const MatchThreshold = 0.6

// ErrNoMatch is returned when no candidate descriptor clears MatchThreshold.
var ErrNoMatch = errors.New("no matching face descriptor")

// Similarity computes 1 - distance/sqrt(len), where distance is the Euclidean
// norm of the element-wise difference, clamped at 0. Two descriptors of
// different lengths score exactly 0 ("no match", not an error). The result is
// a geometric proxy in [0, 1], not a calibrated confidence.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	distance := float64(search.Float32s(a).EuclideanDistance(b))
	score := 1 - distance/math.Sqrt(float64(len(a)))
	if score < 0 {
		return 0
	}
	return score
}

// Candidate pairs an account ID with its stored descriptor.
type Candidate struct {
	ID         int64
	Descriptor []float32
}

// BestMatch scans candidates linearly and returns the one whose similarity to
// query is highest, provided it strictly exceeds MatchThreshold. Ties go to
// the first-seen candidate. Returns ErrNoMatch when nothing clears the
// threshold. The scan is O(n); acceptable only at small account counts.
func BestMatch(query []float32, candidates []Candidate) (Candidate, float64, error) {
	bestScore := MatchThreshold
	bestIndex := -1
	for i, candidate := range candidates {
		score := Similarity(query, candidate.Descriptor)
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return Candidate{}, 0, ErrNoMatch
	}
	return candidates[bestIndex], bestScore, nil
}
