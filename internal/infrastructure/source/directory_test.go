package source

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
)

type storageFake struct {
	files   map[string]string
	order   []string
	listErr error
}

func (s *storageFake) List(context.Context) ([]string, error) {
	return s.order, s.listErr
}

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := s.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type upperExtractor struct{ err error }

func (e upperExtractor) Extract(_ context.Context, _ string, r io.Reader) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	raw, _ := io.ReadAll(r)
	return strings.ToUpper(string(raw)), nil
}

type staticLoader struct {
	docs []domain.Document
	err  error
}

func (l staticLoader) LoadDocuments(context.Context) ([]domain.Document, error) {
	return l.docs, l.err
}

func TestDirectoryLoaderUsesFileNameAsTopic(t *testing.T) {
	storage := &storageFake{
		files: map[string]string{"rules.txt": "eleven players.", "notes.bin": "??"},
		order: []string{"notes.bin", "rules.txt"},
	}
	loader := NewDirectoryLoader(storage, map[string]ports.TextExtractor{".TXT": upperExtractor{}})

	docs, err := loader.LoadDocuments(context.Background())
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Topic != "rules.txt" || docs[0].Text != "ELEVEN PLAYERS." {
		t.Fatalf("unexpected document: %#v", docs[0])
	}
}

func TestDirectoryLoaderPropagatesExtractError(t *testing.T) {
	storage := &storageFake{files: map[string]string{"a.txt": "x"}, order: []string{"a.txt"}}
	loader := NewDirectoryLoader(storage, map[string]ports.TextExtractor{".txt": upperExtractor{err: errors.New("bad bytes")}})

	_, err := loader.LoadDocuments(context.Background())
	if err == nil || !strings.Contains(err.Error(), "a.txt") {
		t.Fatalf("expected error naming the file, got %v", err)
	}
}

func TestCompositeLoaderKeepsOrderAndStopsOnError(t *testing.T) {
	composite := CompositeLoader{
		staticLoader{docs: []domain.Document{{Text: "a", Topic: "a.txt"}}},
		staticLoader{docs: []domain.Document{{Text: "w", Topic: domain.TopicWikipedia}}},
	}
	docs, err := composite.LoadDocuments(context.Background())
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if len(docs) != 2 || docs[0].Topic != "a.txt" || docs[1].Topic != domain.TopicWikipedia {
		t.Fatalf("unexpected documents: %#v", docs)
	}

	failing := CompositeLoader{staticLoader{err: errors.New("offline")}, staticLoader{}}
	if _, err := failing.LoadDocuments(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
