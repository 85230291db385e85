package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
	"github.com/kirillkom/grounded-qa/internal/core/vecmath"
)

const (
	DefaultTopK     = 10
	DefaultMinScore = 0.45
)

// GuardedRetriever searches the corpus index and keeps only hits scoring at
// or above MinScore.
type GuardedRetriever struct {
	embedder ports.Embedder
	minScore float64
}

func NewGuardedRetriever(embedder ports.Embedder, minScore float64) *GuardedRetriever {
	return &GuardedRetriever{
		embedder: embedder,
		minScore: minScore,
	}
}

func (r *GuardedRetriever) MinScore() float64 {
	return r.minScore
}

// Retrieve embeds the query and delegates to RetrieveVector. A nil result
// with a nil error means nothing was relevant enough.
func (r *GuardedRetriever) Retrieve(ctx context.Context, corpus *Corpus, query string, topK int) ([]domain.RetrievalResult, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.RetrieveVector(ctx, corpus, queryVector, topK)
}

func (r *GuardedRetriever) RetrieveVector(
	ctx context.Context,
	corpus *Corpus,
	queryVector []float32,
	topK int,
) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits, err := corpus.Index.Search(ctx, vecmath.Normalize(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}

	return filterByScore(resolveHits(corpus, hits), r.minScore), nil
}

func resolveHits(corpus *Corpus, hits []domain.ScoredID) []domain.RetrievalResult {
	out := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := corpus.Chunk(hit.ID)
		if !ok {
			continue
		}
		out = append(out, domain.RetrievalResult{
			Score:   hit.Score,
			Text:    chunk.Text,
			Topic:   chunk.Topic,
			ChunkID: chunk.ID,
		})
	}
	return out
}

// filterByScore keeps results with score >= minScore in their original
// order and returns nil when none survive.
func filterByScore(results []domain.RetrievalResult, minScore float64) []domain.RetrievalResult {
	var out []domain.RetrievalResult
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}
