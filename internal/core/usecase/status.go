package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/ports"
)

// TransitionRecorder receives every confirmed write; the API feeds it into
// Prometheus.
type TransitionRecorder interface {
	ObservePresenceTransition(from, to domain.PresenceStatus)
}

// StatusUseCase is the authoritative side of presence: it validates and
// applies transitions against the store of record.
type StatusUseCase struct {
	store    ports.PresenceStore
	recorder TransitionRecorder
	now      ports.Clock
}

func NewStatusUseCase(store ports.PresenceStore, recorder TransitionRecorder) *StatusUseCase {
	return &StatusUseCase{
		store:    store,
		recorder: recorder,
		now:      time.Now,
	}
}

func (uc *StatusUseCase) List(ctx context.Context, eventID string) ([]domain.PresenceRecord, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list presence", errors.New("event id is required"))
	}
	records, err := uc.store.ListPresence(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	return records, nil
}

func (uc *StatusUseCase) Update(
	ctx context.Context,
	attendeeID string,
	status domain.PresenceStatus,
	eventID string,
) (domain.PresenceRecord, error) {
	attendeeID = strings.TrimSpace(attendeeID)
	eventID = strings.TrimSpace(eventID)
	if attendeeID == "" || eventID == "" {
		return domain.PresenceRecord{}, domain.WrapError(
			domain.ErrInvalidInput, "update presence", errors.New("attendee id and event id are required"),
		)
	}
	if !status.Valid() {
		return domain.PresenceRecord{}, domain.WrapError(
			domain.ErrInvalidInput, "update presence", fmt.Errorf("unknown status %q", status),
		)
	}

	var from domain.PresenceStatus
	updated, err := uc.store.Transition(ctx, eventID, attendeeID, func(current domain.PresenceRecord) (domain.PresenceRecord, error) {
		from = current.Status
		return domain.ApplyTransition(current, status, uc.now())
	})
	if err != nil {
		return domain.PresenceRecord{}, fmt.Errorf("update presence attendee=%s: %w", attendeeID, err)
	}
	if uc.recorder != nil {
		uc.recorder.ObservePresenceTransition(from, updated.Status)
	}
	return updated, nil
}

// Reset sends every attendee of the event back to NotArrived.
func (uc *StatusUseCase) Reset(ctx context.Context, eventID string) (domain.ResetResult, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return domain.ResetResult{}, domain.WrapError(domain.ErrInvalidInput, "reset presence", errors.New("event id is required"))
	}
	result, err := uc.store.ResetAll(ctx, eventID, uc.now())
	if err != nil {
		return domain.ResetResult{}, fmt.Errorf("reset presence: %w", err)
	}
	return result, nil
}

// Seed creates NotArrived records for roster entries that have none yet.
func (uc *StatusUseCase) Seed(ctx context.Context, eventID string, roster []domain.RosterEntry) (int, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "seed presence", errors.New("event id is required"))
	}
	now := domain.StoredTime(uc.now())
	records := make([]domain.PresenceRecord, 0, len(roster))
	for _, entry := range roster {
		entry.EnsureID()
		if entry.ID == "" {
			continue
		}
		records = append(records, domain.PresenceRecord{
			AttendeeID:  entry.ID,
			EventID:     eventID,
			DisplayName: entry.Name,
			Status:      domain.StatusNotArrived,
			LastUpdated: now,
		})
	}
	inserted, err := uc.store.InsertMissing(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("seed presence: %w", err)
	}
	return inserted, nil
}
