package embedding

import (
	"math"
	"sort"

	"github.com/m-mizutani/memoria/pkg/model"
)

// Cosine computes the cosine similarity of two vectors in [-1, 1]. It returns
// 0.0 when either vector has zero magnitude or the dimensions differ; zero
// similarity for a degenerate input is a policy, not an error.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Candidate is a fragment vector offered for ranking
type Candidate struct {
	ID     model.FragmentID
	Vector []float32
}

// Ranked is a candidate with its similarity score against the query
type Ranked struct {
	ID    model.FragmentID
	Score float64
}

// Rank orders candidates by descending cosine similarity to the query. The
// sort is stable: candidates with equal scores keep their input order, so
// truncation to top-K never flickers between runs. Inputs are not mutated.
func Rank(query []float32, candidates []Candidate) []Ranked {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{
			ID:    c.ID,
			Score: Cosine(query, c.Vector),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}
