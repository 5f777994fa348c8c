package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransitionLifecycle(t *testing.T) {
	t0 := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	rec := PresenceRecord{AttendeeID: "alice", EventID: "demo-night", Status: StatusNotArrived, LastUpdated: t0}

	present, err := ApplyTransition(rec, StatusPresent, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, present.Status)
	require.NotNil(t, present.CheckedInAt)
	assert.Equal(t, t0.Add(time.Minute), *present.CheckedInAt)

	out, err := ApplyTransition(present, StatusCheckedOut, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusCheckedOut, out.Status)
	require.NotNil(t, out.CheckedInAt, "checked out keeps original check-in time")
	assert.Equal(t, t0.Add(time.Minute), *out.CheckedInAt)

	reset, err := ApplyTransition(out, StatusNotArrived, t0.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusNotArrived, reset.Status)
	assert.Nil(t, reset.CheckedInAt)
	assert.Equal(t, t0.Add(3*time.Minute), reset.LastUpdated)
}

func TestApplyTransitionSameStatusOnlyTouchesTimestamp(t *testing.T) {
	t0 := time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)
	rec := PresenceRecord{AttendeeID: "alice", Status: StatusNotArrived, LastUpdated: t0}

	first, err := ApplyTransition(rec, StatusPresent, t0.Add(time.Second))
	require.NoError(t, err)
	second, err := ApplyTransition(first, StatusPresent, t0.Add(2*time.Second))
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, *first.CheckedInAt, *second.CheckedInAt)
	assert.Equal(t, t0.Add(2*time.Second), second.LastUpdated)

	back, err := ApplyTransition(second, StatusNotArrived, t0.Add(3*time.Second))
	require.NoError(t, err)
	again, err := ApplyTransition(back, StatusNotArrived, t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, StatusNotArrived, again.Status)
	assert.Nil(t, again.CheckedInAt)
	assert.Equal(t, t0.Add(4*time.Second), again.LastUpdated)
}

func TestApplyTransitionRejectsSkippingReset(t *testing.T) {
	now := time.Now()

	_, err := ApplyTransition(PresenceRecord{Status: StatusNotArrived}, StatusCheckedOut, now)
	assert.True(t, IsKind(err, ErrInvalidTransition))

	_, err = ApplyTransition(PresenceRecord{Status: StatusCheckedOut}, StatusPresent, now)
	assert.True(t, IsKind(err, ErrInvalidTransition))

	_, err = ApplyTransition(PresenceRecord{Status: StatusPresent}, PresenceStatus("Lost"), now)
	assert.True(t, IsKind(err, ErrInvalidInput))
}

func TestResetRecordReportsChange(t *testing.T) {
	at := time.Now()
	rec, changed := ResetRecord(PresenceRecord{Status: StatusPresent, CheckedInAt: &at}, at)
	assert.True(t, changed)
	assert.Nil(t, rec.CheckedInAt)

	_, changed = ResetRecord(PresenceRecord{Status: StatusNotArrived}, at)
	assert.False(t, changed)
}

func TestTransitionTimestampsUseStorePrecision(t *testing.T) {
	now := time.Date(2026, 10, 15, 18, 30, 0, 123456789, time.FixedZone("CEST", 2*60*60))
	want := time.Date(2026, 10, 15, 16, 30, 0, 123456000, time.UTC)

	rec, err := ApplyTransition(PresenceRecord{AttendeeID: "jane-doe", Status: StatusNotArrived}, StatusPresent, now)
	require.NoError(t, err)
	assert.Equal(t, want, rec.LastUpdated)
	require.NotNil(t, rec.CheckedInAt)
	assert.Equal(t, want, *rec.CheckedInAt)

	reset, _ := ResetRecord(rec, now.Add(time.Nanosecond))
	assert.Equal(t, want, reset.LastUpdated)
}

func TestParsePresenceStatus(t *testing.T) {
	for raw, want := range map[string]PresenceStatus{
		"Not Arrived": StatusNotArrived,
		"not-arrived": StatusNotArrived,
		"present":     StatusPresent,
		"Checked Out": StatusCheckedOut,
		"checked_out": StatusCheckedOut,
	} {
		got, err := ParsePresenceStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParsePresenceStatus("gone")
	assert.True(t, IsKind(err, ErrInvalidInput))
}

func TestAttendeeSlug(t *testing.T) {
	cases := map[string]string{
		"Jane Doe":             "jane-doe",
		"Liban (lee~ben) Kano": "liban-leeben-kano",
		"Himanshu Laiker, MBA": "himanshu-laiker-mba",
		"  Michael J.  ":       "michael-j",
		"Jean-Luc   Picard":    "jean-luc-picard",
		"José":                 "jos",
	}
	for in, want := range cases {
		got := AttendeeSlug(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, AttendeeSlug(got), "slug must be idempotent for %q", in)
	}
}

func TestMergePresenceOnlyOverwritesPresenceFields(t *testing.T) {
	at := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)
	profile := Profile{ID: "alice", Name: "Alice", Title: "CTO", Company: "Acme", Status: StatusNotArrived}
	rec := PresenceRecord{AttendeeID: "alice", DisplayName: "Alice A", Status: StatusPresent, LastUpdated: at, CheckedInAt: &at}

	merged := MergePresence(profile, rec)
	assert.Equal(t, "Alice", merged.Name)
	assert.Equal(t, "CTO", merged.Title)
	assert.Equal(t, StatusPresent, merged.Status)
	require.NotNil(t, merged.LastUpdated)
	require.NotNil(t, merged.CheckedInAt)
	assert.Equal(t, at, *merged.CheckedInAt)
}

func TestPresenceIndexPrefersIDThenName(t *testing.T) {
	idx := NewPresenceIndex([]PresenceRecord{
		{AttendeeID: "ben-uko", DisplayName: "Ben Uko", Status: StatusPresent},
		{AttendeeID: "glenn-gray", DisplayName: "Glenn Gray", Status: StatusCheckedOut},
	})

	rec, ok := idx.Lookup(ProfileKey{ID: "glenn-gray", Name: "Ben Uko"})
	require.True(t, ok)
	assert.Equal(t, "glenn-gray", rec.AttendeeID)

	rec, ok = idx.Lookup(ProfileKey{ID: "unknown", Name: "Ben Uko"})
	require.True(t, ok)
	assert.Equal(t, "ben-uko", rec.AttendeeID)

	_, ok = idx.Lookup(ProfileKey{})
	assert.False(t, ok)
}
