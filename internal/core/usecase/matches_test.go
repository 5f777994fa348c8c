package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type matchesSourceFake struct {
	matches []domain.Match
	source  string
	isDemo  bool
	err     error
}

func (f matchesSourceFake) LoadMatches(context.Context) ([]domain.Match, string, bool, error) {
	return f.matches, f.source, f.isDemo, f.err
}

func TestMatchesOverlaysPresenceByIDThenName(t *testing.T) {
	at := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)
	source := matchesSourceFake{
		source: "data/matches.json",
		matches: []domain.Match{{
			Attendee:        "Jane Doe",
			AttendeeProfile: domain.Profile{ID: "jane-doe", Name: "Jane Doe", Title: "CTO", Status: domain.StatusNotArrived},
			Match:           "Sam Lee",
			MatchProfile:    domain.Profile{Name: "Sam Lee", Company: "Acme"},
			MatchScore:      0.9,
		}},
	}
	remote := &remoteStatusFake{records: []domain.PresenceRecord{
		{AttendeeID: "jane-doe", DisplayName: "Jane Doe", Status: domain.StatusPresent, LastUpdated: at, CheckedInAt: &at},
		{AttendeeID: "sam-lee", DisplayName: "Sam Lee", Status: domain.StatusCheckedOut, LastUpdated: at},
	}}

	view, err := NewMatchesUseCase(source, remote, nil).Matches(context.Background(), "demo-night")
	require.NoError(t, err)
	require.Len(t, view.Matches, 1)
	assert.False(t, view.IsDemo)
	assert.Equal(t, "data/matches.json", view.Source)

	m := view.Matches[0]
	assert.Equal(t, domain.StatusPresent, m.AttendeeProfile.Status)
	assert.Equal(t, "CTO", m.AttendeeProfile.Title, "non-presence fields are kept")
	require.NotNil(t, m.AttendeeProfile.CheckedInAt)
	assert.Equal(t, domain.StatusCheckedOut, m.MatchProfile.Status)
	assert.Equal(t, "Acme", m.MatchProfile.Company)
	assert.Equal(t, "Checked Out", m.PresenceStatus)
	assert.Equal(t, domain.StatusNotArrived, source.matches[0].AttendeeProfile.Status, "source slice untouched")
}

func TestMatchesPresenceFailureReturnsDatasetAsStored(t *testing.T) {
	source := matchesSourceFake{isDemo: true, matches: []domain.Match{{Attendee: "A", AttendeeProfile: domain.Profile{Name: "A"}}}}
	remote := &remoteStatusFake{listErr: errors.New("db down")}

	view, err := NewMatchesUseCase(source, remote, nil).Matches(context.Background(), "demo-night")
	require.NoError(t, err)
	assert.True(t, view.IsDemo)
	assert.Empty(t, view.Matches[0].AttendeeProfile.Status)
}

func TestMatchesMissingDataset(t *testing.T) {
	source := matchesSourceFake{err: domain.WrapError(domain.ErrMatchesNotAvailable, "load matches", errors.New("no file"))}

	_, err := NewMatchesUseCase(source, nil, nil).Matches(context.Background(), "demo-night")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrMatchesNotAvailable))
}
