package domain

import "time"

// SourceDocument is one candidate resume that survived deduplication.
type SourceDocument struct {
	FileName     string `json:"file_name"`
	CanonicalKey string `json:"canonical_key"`
	RawBytes     []byte `json:"-"`
}

type ContactInfo struct {
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	NetworkHandle string `json:"network_handle,omitempty"`
}

func (c ContactInfo) IsEmpty() bool {
	return c.Email == "" && c.Phone == "" && c.NetworkHandle == ""
}

type ExtractedRecord struct {
	FileName       string       `json:"file_name"`
	CanonicalKey   string       `json:"canonical_key"`
	NormalizedText string       `json:"normalized_text"`
	PageCount      int          `json:"page_count"`
	Contact        *ContactInfo `json:"contact,omitempty"`
	ExtractedAt    time.Time    `json:"extracted_at"`
}

// RawExtraction is what a format-specific extractor returns before normalisation.
type RawExtraction struct {
	Text      string
	PageCount int
}

type DocumentFailure struct {
	FileName     string `json:"file_name"`
	CanonicalKey string `json:"canonical_key"`
	Error        string `json:"error"`
}

// BatchSummary is the end-of-batch report. Records and Failures are both
// ordered by canonical key.
type BatchSummary struct {
	Discovered int               `json:"discovered"`
	Records    []ExtractedRecord `json:"records"`
	Failures   []DocumentFailure `json:"failures"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}
