package source

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/core/ports"
)

// DirectoryLoader turns every listed file into one Document whose topic is
// the file name. Extractors are chosen by lower-cased extension.
type DirectoryLoader struct {
	storage    ports.ObjectStorage
	extractors map[string]ports.TextExtractor
}

func NewDirectoryLoader(storage ports.ObjectStorage, extractors map[string]ports.TextExtractor) *DirectoryLoader {
	normalized := make(map[string]ports.TextExtractor, len(extractors))
	for ext, extractor := range extractors {
		normalized[strings.ToLower(ext)] = extractor
	}
	return &DirectoryLoader{storage: storage, extractors: normalized}
}

func (l *DirectoryLoader) LoadDocuments(ctx context.Context) ([]domain.Document, error) {
	keys, err := l.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]domain.Document, 0, len(keys))
	for _, key := range keys {
		extractor, ok := l.extractors[strings.ToLower(filepath.Ext(key))]
		if !ok {
			slog.Warn("document_skipped", "key", key, "reason", "no extractor")
			continue
		}
		text, err := l.extract(ctx, key, extractor)
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{Text: text, Topic: key})
	}
	return docs, nil
}

func (l *DirectoryLoader) extract(ctx context.Context, key string, extractor ports.TextExtractor) (string, error) {
	rc, err := l.storage.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open document %s: %w", key, err)
	}
	defer rc.Close()

	text, err := extractor.Extract(ctx, key, rc)
	if err != nil {
		return "", fmt.Errorf("extract document %s: %w", key, err)
	}
	return text, nil
}

// CompositeLoader concatenates the documents of its loaders in order.
type CompositeLoader []ports.DocumentLoader

func (c CompositeLoader) LoadDocuments(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	for _, loader := range c {
		loaded, err := loader.LoadDocuments(ctx)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}
