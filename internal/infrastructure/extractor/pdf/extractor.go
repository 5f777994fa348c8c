package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

// Extractor reads the text layer of a PDF. Image-only pages contribute no
// text but are still counted.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.SourceDocument) (out domain.RawExtraction, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			out = domain.RawExtraction{}
			err = domain.WrapError(domain.ErrUnparsableDocument, "parse pdf "+doc.FileName, fmt.Errorf("parser panic: %v", r))
		}
	}()

	if len(doc.RawBytes) == 0 {
		return domain.RawExtraction{}, domain.WrapError(domain.ErrUnparsableDocument, "parse pdf "+doc.FileName, fmt.Errorf("empty file"))
	}

	reader, err := pdf.NewReader(bytes.NewReader(doc.RawBytes), int64(len(doc.RawBytes)))
	if err != nil {
		return domain.RawExtraction{}, domain.WrapError(domain.ErrUnparsableDocument, "open pdf "+doc.FileName, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return domain.RawExtraction{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return domain.RawExtraction{}, domain.WrapError(
				domain.ErrUnparsableDocument, fmt.Sprintf("read pdf %s page %d", doc.FileName, i), err,
			)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	return domain.RawExtraction{Text: strings.Join(pages, "\n\n"), PageCount: numPages}, nil
}
