package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Storage exposes the regular files directly inside basePath whose
// extension is in the allow list. Subdirectories are not walked.
type Storage struct {
	basePath   string
	extensions map[string]struct{}
}

func New(basePath string, extensions []string) *Storage {
	if basePath == "" {
		basePath = "./Documents"
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return &Storage{basePath: basePath, extensions: allowed}
}

// List returns matching file names sorted by name. A missing directory is
// an empty listing.
func (s *Storage) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := s.extensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		keys = append(keys, entry.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if key != filepath.Base(key) {
		return nil, fmt.Errorf("open file: invalid key %q", key)
	}
	f, err := os.Open(filepath.Join(s.basePath, key))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}
