package chunking

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/grounded-qa/internal/core/sentence"
)

func TestSplitGroupsThreeSentencesByDefault(t *testing.T) {
	s := NewSplitter(0)
	chunks := s.Split("One. Two. Three. Four. Five.")
	want := []string{"One. Two. Three.", "Four. Five."}
	if !reflect.DeepEqual(chunks, want) {
		t.Fatalf("Split() = %#v, want %#v", chunks, want)
	}
}

func TestSplitDropsWhitespaceOnlyChunks(t *testing.T) {
	s := NewSplitter(1)
	chunks := s.Split("Alpha.   \n  ")
	if len(chunks) != 1 || chunks[0] != "Alpha." {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	if chunks := NewSplitter(3).Split(""); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %#v", chunks)
	}
}

func TestSplitNeverCutsMidSentence(t *testing.T) {
	text := "Football is a family of team sports. It involves kicking a ball! Does it score goals? Yes. The end."
	for size := 1; size <= 6; size++ {
		for _, chunk := range NewSplitter(size).Split(text) {
			if !strings.HasSuffix(chunk, ".") && !strings.HasSuffix(chunk, "!") && !strings.HasSuffix(chunk, "?") {
				t.Fatalf("size=%d chunk does not end on a sentence boundary: %q", size, chunk)
			}
		}
	}
}

func TestSplitReconstructsSentenceSequence(t *testing.T) {
	texts := []string{
		"The Premier League was founded in 1992. It has twenty clubs.\nSeasons run from August to May! Who wins? Usually a big club.",
		"  Leading whitespace.   Several   spaces inside a sentence. Last one without punctuation",
		"Single sentence.",
	}
	for _, text := range texts {
		want := sentence.Sentences(text)
		for size := 1; size <= 5; size++ {
			var got []string
			for _, chunk := range NewSplitter(size).Split(text) {
				got = append(got, sentence.Sentences(chunk)...)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("size=%d reconstructed %#v, want %#v", size, got, want)
			}
		}
	}
}
