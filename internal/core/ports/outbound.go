package ports

import (
	"context"
	"io"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

// Embedder maps texts to dense vectors of one dimensionality.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores chunk vectors and answers nearest-neighbour queries.
// Vectors added get consecutive ids starting at zero; Search returns hits
// ordered by descending cosine score.
type VectorIndex interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.ScoredID, error)
}

// DocumentLoader produces the raw documents of the corpus.
type DocumentLoader interface {
	LoadDocuments(ctx context.Context) ([]domain.Document, error)
}

// Chunker splits document text into chunk texts.
type Chunker interface {
	Split(text string) []string
}

// ObjectStorage lists and opens source files.
type ObjectStorage interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// TextExtractor extracts plain text from a source file.
type TextExtractor interface {
	Extract(ctx context.Context, key string, r io.Reader) (string, error)
}

// AnswerLog persists an audit trail of answered queries.
type AnswerLog interface {
	Record(ctx context.Context, entry domain.AnswerLogEntry) error
}
