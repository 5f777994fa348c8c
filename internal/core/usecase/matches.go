package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
	"github.com/kirillkom/attendee-presence/internal/core/ports"
)

// MatchesUseCase serves the curated matches dataset with each profile's
// presence fields taken from the live status store.
type MatchesUseCase struct {
	source   ports.MatchesSource
	presence ports.StatusService
	logger   *slog.Logger
}

func NewMatchesUseCase(source ports.MatchesSource, presence ports.StatusService, logger *slog.Logger) *MatchesUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchesUseCase{source: source, presence: presence, logger: logger}
}

// Matches loads the dataset and overlays presence. A presence lookup failure
// degrades to the dataset as stored rather than failing the read.
func (uc *MatchesUseCase) Matches(ctx context.Context, eventID string) (*domain.MatchesView, error) {
	matches, source, isDemo, err := uc.source.LoadMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}

	view := &domain.MatchesView{Matches: matches, IsDemo: isDemo, Source: source}
	if view.Matches == nil {
		view.Matches = []domain.Match{}
	}
	eventID = strings.TrimSpace(eventID)
	if uc.presence == nil || eventID == "" {
		return view, nil
	}

	records, err := uc.presence.List(ctx, eventID)
	if err != nil {
		uc.logger.Warn("matches_presence_overlay_skipped", "event_id", eventID, "error", err)
		return view, nil
	}
	view.Matches = OverlayPresence(view.Matches, domain.NewPresenceIndex(records))
	return view, nil
}

// OverlayPresence returns a copy of matches with both profiles of every
// match merged with their presence record, when one exists.
func OverlayPresence(matches []domain.Match, idx domain.PresenceIndex) []domain.Match {
	out := make([]domain.Match, len(matches))
	for i, m := range matches {
		if rec, ok := idx.Lookup(m.AttendeeProfile.Key()); ok {
			m.AttendeeProfile = domain.MergePresence(m.AttendeeProfile, rec)
		}
		if rec, ok := idx.Lookup(m.MatchProfile.Key()); ok {
			m.MatchProfile = domain.MergePresence(m.MatchProfile, rec)
			m.PresenceStatus = string(rec.Status)
		}
		out[i] = m
	}
	return out
}
