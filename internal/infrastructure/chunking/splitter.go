package chunking

import (
	"strings"

	"github.com/kirillkom/grounded-qa/internal/core/sentence"
)

const DefaultSentencesPerChunk = 3

// Splitter groups consecutive sentences into fixed-size chunks.
type Splitter struct {
	SentencesPerChunk int
}

func NewSplitter(sentencesPerChunk int) *Splitter {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = DefaultSentencesPerChunk
	}
	return &Splitter{SentencesPerChunk: sentencesPerChunk}
}

func (s *Splitter) Split(text string) []string {
	pieces := sentence.Split(text)
	size := s.SentencesPerChunk
	if size <= 0 {
		size = DefaultSentencesPerChunk
	}

	out := make([]string, 0, len(pieces)/size+1)
	for start := 0; start < len(pieces); start += size {
		end := start + size
		if end > len(pieces) {
			end = len(pieces)
		}
		chunk := strings.TrimSpace(strings.Join(pieces[start:end], " "))
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}
