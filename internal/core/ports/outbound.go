package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

// DocumentSource lists and reads candidate files under the source root.
type DocumentSource interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// TextExtractor turns raw document bytes into text and a page count.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.SourceDocument) (domain.RawExtraction, error)
}

// ExtractedRecordStore receives every successfully extracted record.
type ExtractedRecordStore interface {
	SaveExtracted(ctx context.Context, rec domain.ExtractedRecord) error
}

// IngestObserver is notified around each document extraction.
type IngestObserver interface {
	StartDocument()
	FinishDocument(duration time.Duration, err error)
}

// PresenceStore is the storage of record for presence. Transition runs fn
// on the current record under a per-attendee write lock and persists its
// result.
type PresenceStore interface {
	ListPresence(ctx context.Context, eventID string) ([]domain.PresenceRecord, error)
	Transition(
		ctx context.Context,
		eventID, attendeeID string,
		fn func(current domain.PresenceRecord) (domain.PresenceRecord, error),
	) (domain.PresenceRecord, error)
	ResetAll(ctx context.Context, eventID string, now time.Time) (domain.ResetResult, error)
	InsertMissing(ctx context.Context, records []domain.PresenceRecord) (int, error)
}

// PresenceSignal carries confirmed presence changes between viewers that do
// not share a process. It is optional: a viewer without it still keeps its
// own observers consistent.
type PresenceSignal interface {
	PublishPresenceChanged(ctx context.Context, change domain.PresenceChange) error
	SubscribePresenceChanged(ctx context.Context, handler func(context.Context, domain.PresenceChange) error) error
}

// PresenceObserver is an in-process listener on the viewer cache.
type PresenceObserver func(domain.PresenceRecord)

// MatchesSource loads the externally curated matches dataset.
type MatchesSource interface {
	LoadMatches(ctx context.Context) ([]domain.Match, string, bool, error)
}

// Clock is injected so transitions are testable.
type Clock func() time.Time
