package ports

import (
	"context"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

// DocumentIngestor runs one ingestion batch over the configured source root.
type DocumentIngestor interface {
	Run(ctx context.Context) (*domain.BatchSummary, error)
}

// StatusService is the authoritative presence contract. The HTTP adapter
// serves it and the viewer-side client speaks it over the wire.
type StatusService interface {
	List(ctx context.Context, eventID string) ([]domain.PresenceRecord, error)
	Update(ctx context.Context, attendeeID string, status domain.PresenceStatus, eventID string) (domain.PresenceRecord, error)
}

// StatusAdmin covers operator actions on the authoritative store.
type StatusAdmin interface {
	Reset(ctx context.Context, eventID string) (domain.ResetResult, error)
	Seed(ctx context.Context, eventID string, roster []domain.RosterEntry) (int, error)
}

// MatchesReader serves the curated matches dataset with live presence merged in.
type MatchesReader interface {
	Matches(ctx context.Context, eventID string) (*domain.MatchesView, error)
}
