package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/vecmath"
)

// Index is an exact inner-product index over vectors normalised by the
// caller, so scores are cosine similarities.
type Index struct {
	mu        sync.RWMutex
	vectors   [][]float32
	dimension int
}

func New() *Index {
	return &Index{}
}

func (ix *Index) Reset(context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors = nil
	ix.dimension = 0
	return nil
}

func (ix *Index) Add(_ context.Context, vectors [][]float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	dimension := ix.dimension
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("memory index add: vector %d is empty", i)
		}
		if dimension == 0 {
			dimension = len(v)
		}
		if len(v) != dimension {
			return domain.WrapError(
				domain.ErrEmbeddingMismatch,
				"memory index add",
				fmt.Errorf("vector %d has dimension %d, index has %d", i, len(v), dimension),
			)
		}
	}
	ix.dimension = dimension
	for _, v := range vectors {
		stored := make([]float32, len(v))
		copy(stored, v)
		ix.vectors = append(ix.vectors, stored)
	}
	return nil
}

func (ix *Index) Search(_ context.Context, queryVector []float32, k int) ([]domain.ScoredID, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(queryVector) != ix.dimension {
		return nil, domain.WrapError(
			domain.ErrEmbeddingMismatch,
			"memory index search",
			fmt.Errorf("query has dimension %d, index has %d", len(queryVector), ix.dimension),
		)
	}

	hits := make([]domain.ScoredID, len(ix.vectors))
	for id, v := range ix.vectors {
		hits[id] = domain.ScoredID{ID: id, Score: vecmath.Dot(queryVector, v)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}
