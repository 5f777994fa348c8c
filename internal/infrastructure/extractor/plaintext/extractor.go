package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

// Extractor accepts UTF-8 text documents as a single page.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, doc domain.SourceDocument) (domain.RawExtraction, error) {
	if !utf8.Valid(doc.RawBytes) {
		return domain.RawExtraction{}, domain.WrapError(
			domain.ErrUnparsableDocument, "extract text", fmt.Errorf("not utf-8 text: %s", doc.FileName),
		)
	}
	text := strings.TrimSpace(string(doc.RawBytes))
	pages := 1
	if text == "" {
		pages = 0
	}
	return domain.RawExtraction{Text: text, PageCount: pages}, nil
}
