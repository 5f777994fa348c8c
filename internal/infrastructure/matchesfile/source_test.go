package matchesfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

const oneMatch = `[{"attendee":"Jane Doe","attendeeProfile":{"id":"jane-doe","name":"Jane Doe"},"match":"Sam Lee","matchProfile":{"name":"Sam Lee"},"matchScore":0.82,"icebreakers":["Ask about surfing"]}]`

func TestLoadMatchesPrefersEarlierPaths(t *testing.T) {
	dir := t.TempDir()
	realPath := filepath.Join(dir, "matches.json")
	demo := filepath.Join(dir, "demo-matches.json")
	require.NoError(t, os.WriteFile(realPath, []byte(oneMatch), 0o644))
	require.NoError(t, os.WriteFile(demo, []byte(`[]`), 0o644))

	matches, source, isDemo, err := New([]string{filepath.Join(dir, "missing.json"), realPath, demo}).LoadMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, realPath, source)
	assert.False(t, isDemo)
	require.Len(t, matches, 1)
	assert.Equal(t, "jane-doe", matches[0].AttendeeProfile.ID)
	assert.Equal(t, []string{"Ask about surfing"}, matches[0].Icebreakers)
}

func TestLoadMatchesFlagsDemoFallback(t *testing.T) {
	dir := t.TempDir()
	demo := filepath.Join(dir, "demo-matches.json")
	require.NoError(t, os.WriteFile(demo, []byte(oneMatch), 0o644))

	_, source, isDemo, err := New([]string{filepath.Join(dir, "matches.json"), demo}).LoadMatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, demo, source)
	assert.True(t, isDemo)
}

func TestLoadMatchesNoneExist(t *testing.T) {
	_, _, _, err := New([]string{filepath.Join(t.TempDir(), "matches.json")}).LoadMatches(context.Background())
	assert.True(t, domain.IsKind(err, domain.ErrMatchesNotAvailable))
}
