package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

// Source serves the regular files directly under one directory. It does
// not recurse.
type Source struct {
	basePath string
}

func New(basePath string) *Source {
	if basePath == "" {
		basePath = "./data/resumes"
	}
	return &Source{basePath: basePath}
}

func (s *Source) BasePath() string {
	return s.basePath
}

func (s *Source) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorageUnavailable, "read source dir "+s.basePath, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *Source) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open source document", fmt.Errorf("bad name %q", name))
	}
	f, err := os.Open(filepath.Join(s.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Save writes data under name, creating the directory when needed. Used by
// the QR batch to place rendered images.
func (s *Source) Save(_ context.Context, name string, data io.Reader) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	f, err := os.Create(filepath.Join(s.basePath, name))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
