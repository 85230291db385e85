package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

func TestRetrieveKeepsScoresAtOrAboveThreshold(t *testing.T) {
	index := &indexFake{hits: []domain.ScoredID{
		{ID: 1, Score: 0.80},
		{ID: 0, Score: 0.45},
		{ID: 2, Score: 0.4499},
	}}
	corpus := corpusOf(index,
		domain.Chunk{Text: "zero", Topic: "a.txt"},
		domain.Chunk{Text: "one", Topic: "b.txt"},
		domain.Chunk{Text: "two", Topic: "c.txt"},
	)
	r := NewGuardedRetriever(&mapEmbedder{}, 0.45)

	results, err := r.Retrieve(context.Background(), corpus, "q", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %#v", results)
	}
	if results[0].ChunkID != 1 || results[0].Text != "one" || results[0].Topic != "b.txt" {
		t.Fatalf("unexpected first result: %#v", results[0])
	}
	if results[1].ChunkID != 0 || results[1].Score != 0.45 {
		t.Fatalf("expected threshold tie to be kept, got %#v", results[1])
	}
	for _, res := range results {
		if res.Score < r.MinScore() {
			t.Fatalf("result below threshold: %#v", res)
		}
	}
}

func TestRetrieveReturnsNilWhenNothingQualifies(t *testing.T) {
	index := &indexFake{hits: []domain.ScoredID{{ID: 0, Score: 0.2}, {ID: 1, Score: 0.1}}}
	corpus := corpusOf(index, domain.Chunk{Text: "zero"}, domain.Chunk{Text: "one"})

	results, err := NewGuardedRetriever(&mapEmbedder{}, DefaultMinScore).Retrieve(context.Background(), corpus, "q", 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if results != nil {
		t.Fatalf("expected nil results, got %#v", results)
	}
}

func TestRetrieveIgnoresIDsOutsideCorpus(t *testing.T) {
	index := &indexFake{hits: []domain.ScoredID{{ID: 7, Score: 0.9}, {ID: -1, Score: 0.9}, {ID: 0, Score: 0.6}}}
	corpus := corpusOf(index, domain.Chunk{Text: "zero"})

	results, err := NewGuardedRetriever(&mapEmbedder{}, DefaultMinScore).Retrieve(context.Background(), corpus, "q", 10)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != 0 {
		t.Fatalf("unexpected results: %#v", results)
	}
}

func TestRetrieveNormalizesQueryAndDefaultsTopK(t *testing.T) {
	index := &indexFake{}
	corpus := corpusOf(index, domain.Chunk{Text: "zero"})
	embedder := &mapEmbedder{vectors: map[string][]float32{"q": {3, 4}}}

	if _, err := NewGuardedRetriever(embedder, DefaultMinScore).Retrieve(context.Background(), corpus, "q", 0); err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if index.lastK != DefaultTopK {
		t.Fatalf("expected default top k %d, got %d", DefaultTopK, index.lastK)
	}
	if math.Abs(float64(index.lastQuery[0])-0.6) > 1e-6 || math.Abs(float64(index.lastQuery[1])-0.8) > 1e-6 {
		t.Fatalf("expected normalized query vector, got %v", index.lastQuery)
	}
}

func TestRetrievePropagatesCollaboratorErrors(t *testing.T) {
	corpus := corpusOf(&indexFake{}, domain.Chunk{Text: "zero"})
	errEmbed := errors.New("embed down")
	if _, err := NewGuardedRetriever(&mapEmbedder{queryErr: errEmbed}, DefaultMinScore).Retrieve(context.Background(), corpus, "q", 3); !errors.Is(err, errEmbed) {
		t.Fatalf("expected embed error, got %v", err)
	}

	errSearch := errors.New("index down")
	corpus = corpusOf(&indexFake{err: errSearch}, domain.Chunk{Text: "zero"})
	if _, err := NewGuardedRetriever(&mapEmbedder{}, DefaultMinScore).Retrieve(context.Background(), corpus, "q", 3); !errors.Is(err, errSearch) {
		t.Fatalf("expected search error, got %v", err)
	}
}
