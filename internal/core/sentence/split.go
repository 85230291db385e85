// Package sentence holds the sentence-boundary rule shared by chunking and
// context assembly: a sentence ends at '.', '!' or '?' followed by whitespace.
package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Split cuts text at every whitespace run that directly follows a terminal
// punctuation mark. The whitespace run is consumed; everything else is kept
// verbatim, so pieces may be empty or carry leading whitespace.
func Split(text string) []string {
	out := make([]string, 0, strings.Count(text, ".")+1)
	start := 0
	prev := rune(0)
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) && isTerminal(prev) {
			out = append(out, text[start:i])
			j := i
			for j < len(text) {
				next, n := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsSpace(next) {
					break
				}
				j += n
			}
			start = j
			i = j
			prev = ' '
			continue
		}
		prev = r
		i += size
	}
	return append(out, text[start:])
}

// Sentences returns the trimmed, non-empty pieces of Split.
func Sentences(text string) []string {
	pieces := Split(text)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
