package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
	"github.com/kirillkom/grounded-qa/internal/core/vecmath"
)

// Corpus is the built, read-only chunk list together with the index that
// holds its vectors. Index ids equal positions in Chunks.
type Corpus struct {
	Chunks []domain.Chunk
	Index  ports.VectorIndex
}

// Chunk returns the chunk with the given id.
func (c *Corpus) Chunk(id int) (domain.Chunk, bool) {
	if c == nil || id < 0 || id >= len(c.Chunks) {
		return domain.Chunk{}, false
	}
	return c.Chunks[id], true
}

type CorpusBuilder struct {
	loader   ports.DocumentLoader
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewCorpusBuilder(
	loader ports.DocumentLoader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *CorpusBuilder {
	return &CorpusBuilder{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
	}
}

func (b *CorpusBuilder) Build(ctx context.Context) (*Corpus, error) {
	start := time.Now()

	docs, err := b.loader.LoadDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	chunks := ChunkDocuments(b.chunker, docs)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrCorpusNotReady, "chunk documents", errors.New("corpus produced zero chunks"))
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrEmbeddingMismatch,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	if err := b.index.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset vector index: %w", err)
	}
	if err := b.index.Add(ctx, vecmath.NormalizeAll(vectors)); err != nil {
		return nil, fmt.Errorf("add chunk vectors: %w", err)
	}

	slog.Info("corpus_built",
		"documents", len(docs),
		"chunks", len(chunks),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return &Corpus{Chunks: chunks, Index: b.index}, nil
}

// ChunkDocuments chunks every document in order and assigns corpus-wide ids.
// No chunk spans two documents.
func ChunkDocuments(chunker ports.Chunker, docs []domain.Document) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(docs))
	for _, doc := range docs {
		for _, text := range chunker.Split(doc.Text) {
			out = append(out, domain.Chunk{
				ID:    len(out),
				Text:  text,
				Topic: doc.Topic,
			})
		}
	}
	return out
}

// LazyCorpus builds the corpus at most once. Concurrent callers wait for the
// same build; a failed build is retried by the next caller.
type LazyCorpus struct {
	builder *CorpusBuilder

	buildMu sync.Mutex
	corpus  atomic.Pointer[Corpus]
}

func NewLazyCorpus(builder *CorpusBuilder) *LazyCorpus {
	return &LazyCorpus{builder: builder}
}

// NewStaticCorpus wraps an already built corpus.
func NewStaticCorpus(corpus *Corpus) *LazyCorpus {
	l := &LazyCorpus{}
	l.corpus.Store(corpus)
	return l
}

func (l *LazyCorpus) Get(ctx context.Context) (*Corpus, error) {
	if corpus := l.corpus.Load(); corpus != nil {
		return corpus, nil
	}

	l.buildMu.Lock()
	defer l.buildMu.Unlock()
	if corpus := l.corpus.Load(); corpus != nil {
		return corpus, nil
	}
	if l.builder == nil {
		return nil, domain.WrapError(domain.ErrCorpusNotReady, "get corpus", errors.New("no corpus builder configured"))
	}

	corpus, err := l.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	l.corpus.Store(corpus)
	return corpus, nil
}

func (l *LazyCorpus) Ready() bool {
	return l.corpus.Load() != nil
}

func (l *LazyCorpus) ChunkCount() int {
	corpus := l.corpus.Load()
	if corpus == nil {
		return 0
	}
	return len(corpus.Chunks)
}
