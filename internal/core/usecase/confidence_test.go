package usecase

import (
	"math/rand"
	"testing"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

func TestScoreConfidenceIsRoundedMean(t *testing.T) {
	results := []domain.RetrievalResult{{Score: 0.7}, {Score: 0.5}, {Score: 0.6004}}
	if got := ScoreConfidence(results); got != 0.6 {
		t.Fatalf("ScoreConfidence() = %v, want 0.6", got)
	}
	if got := ScoreConfidence([]domain.RetrievalResult{{Score: 0.7}}); got != 0.7 {
		t.Fatalf("ScoreConfidence() = %v, want 0.7", got)
	}
}

func TestScoreConfidenceOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	results := make([]domain.RetrievalResult, 25)
	for i := range results {
		results[i].Score = 0.45 + rng.Float64()*0.5
	}
	want := ScoreConfidence(results)
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.RetrievalResult(nil), results...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := ScoreConfidence(shuffled); got != want {
			t.Fatalf("shuffle %d: got %v, want %v", i, got, want)
		}
	}
	if again := ScoreConfidence(results); again != want {
		t.Fatalf("expected idempotent score, got %v then %v", want, again)
	}
}

func TestScoreConfidenceEmpty(t *testing.T) {
	if got := ScoreConfidence(nil); got != 0 {
		t.Fatalf("expected 0 for no results, got %v", got)
	}
}
