package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

func TestListReturnsRegularFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.pdf", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	names, err := New(dir).List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Join(names, ",") != "a.pdf,b.pdf,notes.txt" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestListMissingDirIsStorageUnavailable(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing")).List(context.Background())
	if !domain.IsKind(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected storage unavailable, got %v", err)
	}
}

func TestSaveThenOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "out"))
	if err := s.Save(context.Background(), "checkin-jane.png", strings.NewReader("png")); err != nil {
		t.Fatalf("save: %v", err)
	}
	rc, err := s.Open(context.Background(), "checkin-jane.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "png" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestOpenRejectsPathTraversal(t *testing.T) {
	_, err := New(t.TempDir()).Open(context.Background(), "../etc/passwd")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
