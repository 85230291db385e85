package usecase

import (
	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/sentence"
	"github.com/kirillkom/grounded-qa/internal/core/vecmath"
)

const DefaultMaxChunks = 3

// AssembleContext expands the first maxChunks results into sentences, each
// tagged with a citation of its parent chunk. Order follows retrieval rank,
// then sentence order within the chunk.
func AssembleContext(results []domain.RetrievalResult, maxChunks int) []domain.ContextSentence {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if len(results) > maxChunks {
		results = results[:maxChunks]
	}

	out := make([]domain.ContextSentence, 0, len(results)*3)
	for _, r := range results {
		source := domain.Citation{
			Topic:          r.Topic,
			RetrievalScore: vecmath.Round3(r.Score),
			ChunkID:        r.ChunkID,
			Chunk:          r.Text,
		}
		for _, s := range sentence.Sentences(r.Text) {
			out = append(out, domain.ContextSentence{
				Sentence: s,
				Source:   source,
			})
		}
	}
	return out
}
