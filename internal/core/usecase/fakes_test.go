package usecase

import (
	"context"
	"sync"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

// mapEmbedder returns a fixed vector per text; unknown texts map to fallback.
type mapEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	fallback   []float32
	err        error
	queryErr   error
	shortBy    int
	embedCalls int
	queryCalls int
}

func (f *mapEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts[:len(texts)-f.shortBy] {
		out = append(out, f.lookup(text))
	}
	return out, nil
}

func (f *mapEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.lookup(text), nil
}

func (f *mapEmbedder) lookup(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	if f.fallback != nil {
		return f.fallback
	}
	return []float32{0, 0, 0, 1}
}

type indexFake struct {
	mu        sync.Mutex
	hits      []domain.ScoredID
	err       error
	resets    int
	added     [][]float32
	lastQuery []float32
	lastK     int
}

func (f *indexFake) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.added = nil
	return nil
}

func (f *indexFake) Add(_ context.Context, vectors [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, vectors...)
	return nil
}

func (f *indexFake) Search(_ context.Context, queryVector []float32, k int) ([]domain.ScoredID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = queryVector
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type loaderFake struct {
	mu    sync.Mutex
	docs  []domain.Document
	err   error
	calls int
}

func (f *loaderFake) LoadDocuments(context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// lineChunker treats every non-empty line as one chunk.
type lineChunker struct{}

func (lineChunker) Split(text string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(text); i++ {
		if i == len(text) || text[i] == '\n' {
			if i > start {
				out = append(out, text[start:i])
			}
			start = i + 1
		}
	}
	return out
}

type answerLogFake struct {
	entries []domain.AnswerLogEntry
	err     error
}

func (f *answerLogFake) Record(_ context.Context, entry domain.AnswerLogEntry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

func corpusOf(index *indexFake, chunks ...domain.Chunk) *Corpus {
	for i := range chunks {
		chunks[i].ID = i
	}
	return &Corpus{Chunks: chunks, Index: index}
}
