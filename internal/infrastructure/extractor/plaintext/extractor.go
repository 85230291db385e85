package plaintext

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, key string, r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("document %s is not valid utf-8 text", key)
	}
	return string(raw), nil
}
