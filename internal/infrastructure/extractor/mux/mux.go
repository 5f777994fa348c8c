package mux

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/ports"
)

// ByExtension routes each document to the extractor registered for its
// lower-cased file extension. A doubled extension such as ".pdf.pdf"
// resolves by its last element.
type ByExtension struct {
	extractors map[string]ports.TextExtractor
}

func NewByExtension(extractors map[string]ports.TextExtractor) *ByExtension {
	normalized := make(map[string]ports.TextExtractor, len(extractors))
	for ext, extractor := range extractors {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[ext] = extractor
	}
	return &ByExtension{extractors: normalized}
}

func (m *ByExtension) Extract(ctx context.Context, doc domain.SourceDocument) (domain.RawExtraction, error) {
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	extractor, ok := m.extractors[ext]
	if !ok {
		return domain.RawExtraction{}, domain.WrapError(
			domain.ErrUnparsableDocument, "extract "+doc.FileName, fmt.Errorf("no extractor for %q", ext),
		)
	}
	return extractor.Extract(ctx, doc)
}
