package usecase

import (
	"sort"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/vecmath"
)

// ScoreConfidence is the mean raw retrieval score of results, rounded to
// three decimals. It is 0 for no results.
func ScoreConfidence(results []domain.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	// Summing in sorted order keeps the result independent of input order.
	scores := make([]float64, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	sort.Float64s(scores)

	var sum float64
	for _, s := range scores {
		sum += s
	}
	return vecmath.Round3(sum / float64(len(scores)))
}
