package plaintext

import (
	"context"
	"strings"
	"testing"
)

func TestExtractReturnsText(t *testing.T) {
	got, err := NewExtractor().Extract(context.Background(), "a.txt", strings.NewReader("One. Two."))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "One. Two." {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), "a.txt", strings.NewReader("\xff\xfe\x00"))
	if err == nil || !strings.Contains(err.Error(), "a.txt") {
		t.Fatalf("expected utf-8 error naming the file, got %v", err)
	}
}
