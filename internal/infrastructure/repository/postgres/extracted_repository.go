package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

// ExtractedRepository keeps the latest extraction per canonical key for the
// profile-building stage downstream.
type ExtractedRepository struct {
	db *sql.DB
}

func NewExtractedRepository(db *sql.DB) *ExtractedRepository {
	return &ExtractedRepository{db: db}
}

func (r *ExtractedRepository) SaveExtracted(ctx context.Context, rec domain.ExtractedRecord) error {
	var contact []byte
	if rec.Contact != nil {
		raw, err := json.Marshal(rec.Contact)
		if err != nil {
			return fmt.Errorf("marshal contact: %w", err)
		}
		contact = raw
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO extracted_documents (canonical_key, file_name, normalized_text, page_count, contact, extracted_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (canonical_key) DO UPDATE
SET file_name = EXCLUDED.file_name,
	normalized_text = EXCLUDED.normalized_text,
	page_count = EXCLUDED.page_count,
	contact = EXCLUDED.contact,
	extracted_at = EXCLUDED.extracted_at
`, rec.CanonicalKey, rec.FileName, rec.NormalizedText, rec.PageCount, contact, rec.ExtractedAt)
	if err != nil {
		return domain.WrapError(domain.ErrStorageUnavailable, "upsert extracted document", err)
	}
	return nil
}
