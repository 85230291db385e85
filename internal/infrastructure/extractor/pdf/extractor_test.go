package pdf

import (
	"context"
	"strings"
	"testing"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "notes.pdf", strings.NewReader("plain text, not a pdf"))
	if err == nil {
		t.Fatalf("expected error for non-pdf input")
	}
	if !strings.Contains(err.Error(), "notes.pdf") {
		t.Fatalf("expected error to name the file, got %v", err)
	}
}
