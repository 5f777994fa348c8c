package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type presenceStoreFake struct {
	mu      sync.Mutex
	records map[string]domain.PresenceRecord
	err     error
}

func newPresenceStoreFake(records ...domain.PresenceRecord) *presenceStoreFake {
	f := &presenceStoreFake{records: map[string]domain.PresenceRecord{}}
	for _, rec := range records {
		f.records[rec.EventID+"/"+rec.AttendeeID] = rec
	}
	return f
}

func (f *presenceStoreFake) ListPresence(_ context.Context, eventID string) ([]domain.PresenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.PresenceRecord{}
	for _, rec := range f.records {
		if rec.EventID == eventID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttendeeID < out[j].AttendeeID })
	return out, nil
}

func (f *presenceStoreFake) Transition(
	_ context.Context,
	eventID, attendeeID string,
	fn func(domain.PresenceRecord) (domain.PresenceRecord, error),
) (domain.PresenceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.PresenceRecord{}, f.err
	}
	current, ok := f.records[eventID+"/"+attendeeID]
	if !ok {
		return domain.PresenceRecord{}, domain.WrapError(domain.ErrAttendeeNotFound, "transition", errors.New(attendeeID))
	}
	next, err := fn(current)
	if err != nil {
		return domain.PresenceRecord{}, err
	}
	f.records[eventID+"/"+attendeeID] = next
	return next, nil
}

func (f *presenceStoreFake) ResetAll(_ context.Context, eventID string, now time.Time) (domain.ResetResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := domain.ResetResult{EventID: eventID}
	for key, rec := range f.records {
		if rec.EventID != eventID {
			continue
		}
		next, changed := domain.ResetRecord(rec, now)
		f.records[key] = next
		result.Total++
		if changed {
			result.Changed++
		}
	}
	return result, nil
}

func (f *presenceStoreFake) InsertMissing(_ context.Context, records []domain.PresenceRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inserted := 0
	for _, rec := range records {
		key := rec.EventID + "/" + rec.AttendeeID
		if _, ok := f.records[key]; ok {
			continue
		}
		f.records[key] = rec
		inserted++
	}
	return inserted, nil
}

type recorderFake struct {
	transitions [][2]domain.PresenceStatus
}

func (r *recorderFake) ObservePresenceTransition(from, to domain.PresenceStatus) {
	r.transitions = append(r.transitions, [2]domain.PresenceStatus{from, to})
}

func newStatusUseCaseAt(store *presenceStoreFake, recorder TransitionRecorder, now time.Time) *StatusUseCase {
	uc := NewStatusUseCase(store, recorder)
	uc.now = func() time.Time { return now }
	return uc
}

func TestStatusUpdateFollowsLifecycle(t *testing.T) {
	t0 := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	store := newPresenceStoreFake(domain.PresenceRecord{
		AttendeeID: "jane-doe", EventID: "demo-night", Status: domain.StatusNotArrived, LastUpdated: t0,
	})
	recorder := &recorderFake{}
	uc := newStatusUseCaseAt(store, recorder, t0.Add(time.Minute))

	rec, err := uc.Update(context.Background(), "jane-doe", domain.StatusPresent, "demo-night")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPresent, rec.Status)
	require.NotNil(t, rec.CheckedInAt)
	assert.Equal(t, t0.Add(time.Minute), *rec.CheckedInAt)

	uc.now = func() time.Time { return t0.Add(time.Hour) }
	rec, err = uc.Update(context.Background(), "jane-doe", domain.StatusCheckedOut, "demo-night")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCheckedOut, rec.Status)
	assert.Equal(t, t0.Add(time.Hour), rec.LastUpdated)

	_, err = uc.Update(context.Background(), "jane-doe", domain.StatusPresent, "demo-night")
	assert.True(t, domain.IsKind(err, domain.ErrInvalidTransition))

	assert.Equal(t, [][2]domain.PresenceStatus{
		{domain.StatusNotArrived, domain.StatusPresent},
		{domain.StatusPresent, domain.StatusCheckedOut},
	}, recorder.transitions)
}

func TestStatusUpdateValidatesInput(t *testing.T) {
	uc := NewStatusUseCase(newPresenceStoreFake(), nil)

	_, err := uc.Update(context.Background(), "", domain.StatusPresent, "demo-night")
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))

	_, err = uc.Update(context.Background(), "jane-doe", domain.PresenceStatus("Gone"), "demo-night")
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))

	_, err = uc.Update(context.Background(), "nobody", domain.StatusPresent, "demo-night")
	assert.True(t, domain.IsKind(err, domain.ErrAttendeeNotFound))
}

func TestStatusListRequiresEvent(t *testing.T) {
	_, err := NewStatusUseCase(newPresenceStoreFake(), nil).List(context.Background(), " ")
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}

func TestStatusSeedAndReset(t *testing.T) {
	t0 := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	checkedIn := t0.Add(-time.Hour)
	store := newPresenceStoreFake(domain.PresenceRecord{
		AttendeeID: "jane-doe", EventID: "demo-night", Status: domain.StatusPresent, LastUpdated: checkedIn, CheckedInAt: &checkedIn,
	})
	uc := newStatusUseCaseAt(store, nil, t0)

	inserted, err := uc.Seed(context.Background(), "demo-night", []domain.RosterEntry{
		{Name: "Jane Doe"},
		{Name: "Sam  Lee"},
		{ID: "custom", Name: "Kim"},
		{Name: "!!!"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	records, err := uc.List(context.Background(), "demo-night")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"custom", "jane-doe", "sam-lee"}, []string{records[0].AttendeeID, records[1].AttendeeID, records[2].AttendeeID})
	assert.Equal(t, domain.StatusPresent, records[1].Status, "seeding keeps existing records")

	result, err := uc.Reset(context.Background(), "demo-night")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Changed)

	records, err = uc.List(context.Background(), "demo-night")
	require.NoError(t, err)
	for _, rec := range records {
		assert.Equal(t, domain.StatusNotArrived, rec.Status)
		assert.Nil(t, rec.CheckedInAt)
		assert.Equal(t, t0, rec.LastUpdated)
	}
}
