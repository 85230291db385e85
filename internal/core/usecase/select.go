package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
	"github.com/kirillkom/grounded-qa/internal/core/vecmath"
)

const DefaultMinSentenceSimilarity = 0.65

// Selection is the outcome of grounded answer selection. Both fields are nil
// when there was no context; Answer holds the refusal text and Citation is
// nil when no sentence qualified.
type Selection struct {
	Answer   *string
	Citation *domain.Citation
}

type GroundedSelector struct {
	embedder  ports.Embedder
	guardrail Guardrail
	minSim    float64
}

func NewGroundedSelector(embedder ports.Embedder, guardrail Guardrail, minSim float64) *GroundedSelector {
	return &GroundedSelector{
		embedder:  embedder,
		guardrail: guardrail,
		minSim:    minSim,
	}
}

func (s *GroundedSelector) Select(ctx context.Context, query string, sentences []domain.ContextSentence) (Selection, error) {
	if len(sentences) == 0 {
		return Selection{}, nil
	}
	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return Selection{}, fmt.Errorf("embed query: %w", err)
	}
	return s.SelectVector(ctx, queryVector, sentences)
}

// SelectVector ranks sentences by cosine similarity to queryVector and
// returns the first one that clears both the similarity threshold and the
// guardrail. Equal similarities keep their input order.
func (s *GroundedSelector) SelectVector(
	ctx context.Context,
	queryVector []float32,
	sentences []domain.ContextSentence,
) (Selection, error) {
	if len(sentences) == 0 {
		return Selection{}, nil
	}

	texts := make([]string, len(sentences))
	for i, cs := range sentences {
		texts[i] = cs.Sentence
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return Selection{}, fmt.Errorf("embed context sentences: %w", err)
	}
	if len(vectors) != len(sentences) {
		return Selection{}, domain.WrapError(
			domain.ErrEmbeddingMismatch,
			"embed context sentences",
			fmt.Errorf("vectors/sentences mismatch: %d/%d", len(vectors), len(sentences)),
		)
	}

	for i, v := range vectors {
		if len(v) != len(queryVector) {
			return Selection{}, domain.WrapError(
				domain.ErrEmbeddingMismatch,
				"embed context sentences",
				fmt.Errorf("sentence %d has dimension %d, query has %d", i, len(v), len(queryVector)),
			)
		}
	}

	query := vecmath.Normalize(queryVector)
	sims := make([]float64, len(vectors))
	for i, v := range vectors {
		sims[i] = vecmath.Dot(vecmath.Normalize(v), query)
	}

	for _, idx := range rankBySimilarity(sims) {
		sim := sims[idx]
		if math.IsNaN(sim) || sim < s.minSim || !s.guardrail.Allows(sentences[idx].Sentence) {
			continue
		}
		answer := sentences[idx].Sentence
		citation := sentences[idx].Source
		rounded := vecmath.Round3(sim)
		citation.SentenceSimilarity = &rounded
		return Selection{Answer: &answer, Citation: &citation}, nil
	}

	refusal := domain.RefusalAnswer
	return Selection{Answer: &refusal}, nil
}

// rankBySimilarity returns indices ordered by descending similarity. NaN
// values sort last.
func rankBySimilarity(sims []float64) []int {
	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := sims[order[a]], sims[order[b]]
		if math.IsNaN(sb) {
			return !math.IsNaN(sa)
		}
		if math.IsNaN(sa) {
			return false
		}
		return sa > sb
	})
	return order
}
