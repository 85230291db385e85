package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestListFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a.TXT", "a")
	writeFile(t, dir, "c.md", "c")
	if err := os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	keys, err := New(dir, []string{"txt"}).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "a.TXT" || keys[1] != "b.txt" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	keys, err := New(filepath.Join(t.TempDir(), "absent"), []string{".txt"}).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestOpenReadsFileAndRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "hello")
	storage := New(dir, []string{".txt"})

	rc, err := storage.Open(context.Background(), "doc.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Fatalf("unexpected content %q", data)
	}

	if _, err := storage.Open(context.Background(), "../doc.txt"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
