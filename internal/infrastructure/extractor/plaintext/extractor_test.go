package plaintext

import (
	"context"
	"testing"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

func TestExtractTrimsText(t *testing.T) {
	out, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{
		FileName: "Jane_Doe.txt",
		RawBytes: []byte("\n  Jane Doe\nCTO at Acme \n"),
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out.Text != "Jane Doe\nCTO at Acme" || out.PageCount != 1 {
		t.Fatalf("unexpected extraction %+v", out)
	}
}

func TestExtractEmptyHasNoPages(t *testing.T) {
	out, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{FileName: "blank.txt", RawBytes: []byte(" \n")})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out.PageCount != 0 {
		t.Fatalf("expected 0 pages, got %d", out.PageCount)
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), domain.SourceDocument{FileName: "x.txt", RawBytes: []byte{0xff, 0xfe, 0x00}})
	if !domain.IsKind(err, domain.ErrUnparsableDocument) {
		t.Fatalf("expected unparsable document, got %v", err)
	}
}
