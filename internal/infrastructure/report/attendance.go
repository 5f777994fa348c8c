// Package report renders presence records as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

const (
	attendanceSheet = "Attendance"
	summarySheet    = "Summary"
)

// WriteAttendance writes one row per record, in the given order, and a
// summary sheet with a count per status.
func WriteAttendance(w io.Writer, eventID string, records []domain.PresenceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := []any{"Attendee ID", "Name", "Status", "Checked In At", "Last Updated"}
	if err := f.SetSheetRow(attendanceSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	counts := map[domain.PresenceStatus]int{}
	for i, rec := range records {
		counts[rec.Status]++
		checkedIn := ""
		if rec.CheckedInAt != nil {
			checkedIn = rec.CheckedInAt.UTC().Format(time.RFC3339)
		}
		row := []any{rec.AttendeeID, rec.DisplayName, string(rec.Status), checkedIn, rec.LastUpdated.UTC().Format(time.RFC3339)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(attendanceSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Event", eventID},
		{"Total", len(records)},
		{string(domain.StatusNotArrived), counts[domain.StatusNotArrived]},
		{string(domain.StatusPresent), counts[domain.StatusPresent]},
		{string(domain.StatusCheckedOut), counts[domain.StatusCheckedOut]},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
