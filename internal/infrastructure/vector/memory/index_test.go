package memory

import (
	"context"
	"testing"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

func TestSearchReturnsTopKByDescendingScore(t *testing.T) {
	ix := New()
	err := ix.Add(context.Background(), [][]float32{
		{1, 0},
		{0, 1},
		{0.6, 0.8},
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	hits, err := ix.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 || hits[0].ID != 0 || hits[1].ID != 2 {
		t.Fatalf("unexpected hits: %#v", hits)
	}
	if hits[0].Score != 1 {
		t.Fatalf("expected score 1 for identical vector, got %v", hits[0].Score)
	}
}

func TestSearchKLargerThanIndex(t *testing.T) {
	ix := New()
	_ = ix.Add(context.Background(), [][]float32{{1, 0}})
	hits, err := ix.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected only existing vectors, got %#v", hits)
	}
}

func TestAddAssignsConsecutiveIDsAcrossCalls(t *testing.T) {
	ix := New()
	_ = ix.Add(context.Background(), [][]float32{{1, 0}})
	_ = ix.Add(context.Background(), [][]float32{{0, 1}})
	hits, _ := ix.Search(context.Background(), []float32{0, 1}, 1)
	if len(hits) != 1 || hits[0].ID != 1 {
		t.Fatalf("expected second vector to get id 1, got %#v", hits)
	}
}

func TestDimensionMismatch(t *testing.T) {
	ix := New()
	if err := ix.Add(context.Background(), [][]float32{{1, 0}, {1, 0, 0}}); !domain.IsKind(err, domain.ErrEmbeddingMismatch) {
		t.Fatalf("expected mismatch on add, got %v", err)
	}
	if ix.Len() != 0 {
		t.Fatalf("failed add must not store vectors")
	}
	_ = ix.Add(context.Background(), [][]float32{{1, 0}})
	if _, err := ix.Search(context.Background(), []float32{1, 0, 0}, 1); !domain.IsKind(err, domain.ErrEmbeddingMismatch) {
		t.Fatalf("expected mismatch on search, got %v", err)
	}
}

func TestResetClearsIndex(t *testing.T) {
	ix := New()
	_ = ix.Add(context.Background(), [][]float32{{1, 0}})
	_ = ix.Reset(context.Background())
	if ix.Len() != 0 {
		t.Fatalf("expected empty index after reset")
	}
	if err := ix.Add(context.Background(), [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("reset must clear the dimension, got %v", err)
	}
}
