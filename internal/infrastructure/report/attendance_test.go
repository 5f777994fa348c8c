package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

func TestWriteAttendance(t *testing.T) {
	at := time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)
	records := []domain.PresenceRecord{
		{AttendeeID: "jane-doe", DisplayName: "Jane Doe", Status: domain.StatusPresent, LastUpdated: at, CheckedInAt: &at},
		{AttendeeID: "sam-lee", DisplayName: "Sam Lee", Status: domain.StatusNotArrived, LastUpdated: at},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAttendance(&buf, "demo-night", records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(attendanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Attendee ID", rows[0][0])
	assert.Equal(t, []string{"jane-doe", "Jane Doe", "Present", "2026-10-15T18:30:00Z", "2026-10-15T18:30:00Z"}, rows[1])
	assert.Equal(t, "Not Arrived", rows[2][2])

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 5)
	assert.Equal(t, []string{"Total", "2"}, summary[1])
	assert.Equal(t, []string{"Present", "1"}, summary[3])
	assert.Equal(t, []string{"Checked Out", "0"}, summary[4])
}
