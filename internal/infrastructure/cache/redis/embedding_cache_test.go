package redis

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

type storeFake struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	sets   int
}

func newStoreFake() *storeFake {
	return &storeFake{data: make(map[string][]byte)}
}

func (s *storeFake) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *storeFake) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.data[key] = value
	return nil
}

type countingEmbedder struct {
	batches [][]string
	queries int
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.batches = append(e.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (e *countingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.queries++
	return []float32{float32(len(text)), 2}, nil
}

func TestEmbedOnlyForwardsMisses(t *testing.T) {
	next := &countingEmbedder{}
	cache := NewEmbeddingCache(next, newStoreFake(), "m", time.Hour)
	ctx := context.Background()

	if _, err := cache.Embed(ctx, []string{"a", "bb"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	vectors, err := cache.Embed(ctx, []string{"bb", "ccc", "a"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(next.batches) != 2 || len(next.batches[1]) != 1 || next.batches[1][0] != "ccc" {
		t.Fatalf("expected second batch to contain only the miss, got %v", next.batches)
	}
	if vectors[0][0] != 2 || vectors[1][0] != 3 || vectors[2][0] != 1 {
		t.Fatalf("vectors out of input order: %v", vectors)
	}
}

func TestEmbedQueryUsesCache(t *testing.T) {
	next := &countingEmbedder{}
	cache := NewEmbeddingCache(next, newStoreFake(), "m", time.Hour)
	ctx := context.Background()

	first, _ := cache.EmbedQuery(ctx, "question")
	second, err := cache.EmbedQuery(ctx, "question")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if next.queries != 1 {
		t.Fatalf("expected 1 upstream call, got %d", next.queries)
	}
	if first[1] != second[1] {
		t.Fatalf("cached vector differs: %v vs %v", first, second)
	}
}

func TestStoreFailureFallsThrough(t *testing.T) {
	store := newStoreFake()
	store.getErr = errors.New("connection refused")
	next := &countingEmbedder{}
	cache := NewEmbeddingCache(next, store, "m", time.Hour)

	vec, err := cache.EmbedQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vec) != 2 || next.queries != 1 {
		t.Fatalf("expected upstream result, got %v", vec)
	}
}

func TestKeysAreNamespacedByModel(t *testing.T) {
	store := newStoreFake()
	a := NewEmbeddingCache(&countingEmbedder{}, store, "model-a", time.Hour)
	b := NewEmbeddingCache(&countingEmbedder{}, store, "model-b", time.Hour)
	if a.key("x") == b.key("x") {
		t.Fatalf("expected different keys per model")
	}
	if !strings.HasPrefix(a.key("x"), DefaultKeyPrefix+"model-a:") {
		t.Fatalf("unexpected key %q", a.key("x"))
	}
}

func TestClientStoreAgainstLiveRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	store := NewClientStore(client)
	key := DefaultKeyPrefix + "test:" + time.Now().Format(time.RFC3339Nano)
	if _, found, err := store.Get(ctx, key); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}
	if err := store.Set(ctx, key, []byte("[1,2]"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := store.Get(ctx, key)
	if err != nil || !found || string(value) != "[1,2]" {
		t.Fatalf("unexpected Get() = %q %v %v", value, found, err)
	}
}
