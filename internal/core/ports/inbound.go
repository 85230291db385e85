package ports

import (
	"context"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

// AnswerService is the inbound contract for grounded question answering.
type AnswerService interface {
	AnswerQuery(ctx context.Context, query string, topK, maxChunks int) (*domain.PipelineResponse, error)
}

// CorpusStatus reports whether the shared corpus has been built.
type CorpusStatus interface {
	Ready() bool
	ChunkCount() int
}
