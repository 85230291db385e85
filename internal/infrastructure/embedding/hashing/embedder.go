// Package hashing provides an offline embedder that projects word tokens
// into a fixed number of buckets. Texts sharing words get similar vectors,
// which is enough for local runs and tests without a model server.
package hashing

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const DefaultDimensions = 384

type Embedder struct {
	dimensions int
}

func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, e.vector(text))
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

func (e *Embedder) vector(text string) []float32 {
	vec := make([]float32, e.dimensions)
	for _, token := range Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimensions))
		if sum&(1<<63) != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	return vec
}

// Tokenize lowercases text and splits it on anything that is not a letter or
// digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
