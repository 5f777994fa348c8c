package domain

import (
	"fmt"
	"strings"
	"time"
)

type PresenceStatus string

const (
	StatusNotArrived PresenceStatus = "Not Arrived"
	StatusPresent    PresenceStatus = "Present"
	StatusCheckedOut PresenceStatus = "Checked Out"
)

// ParsePresenceStatus accepts the wire strings and a few spellings operators
// type on the command line ("present", "not-arrived", "checked_out").
func ParsePresenceStatus(raw string) (PresenceStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	switch strings.Join(strings.Fields(key), " ") {
	case "not arrived", "notarrived":
		return StatusNotArrived, nil
	case "present":
		return StatusPresent, nil
	case "checked out", "checkedout":
		return StatusCheckedOut, nil
	default:
		return "", WrapError(ErrInvalidInput, "parse presence status", fmt.Errorf("unknown status %q", raw))
	}
}

func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusNotArrived, StatusPresent, StatusCheckedOut:
		return true
	default:
		return false
	}
}

// PresenceRecord is the authoritative status of one attendee at one event.
type PresenceRecord struct {
	AttendeeID  string         `json:"attendeeId"`
	EventID     string         `json:"eventId"`
	DisplayName string         `json:"displayName,omitempty"`
	Status      PresenceStatus `json:"status"`
	LastUpdated time.Time      `json:"lastUpdated"`
	CheckedInAt *time.Time     `json:"checkedInAt,omitempty"`
}

// NewerThan reports whether r should replace other in a cache.
// Equal timestamps count as newer so a repeated confirmation still lands.
func (r PresenceRecord) NewerThan(other PresenceRecord) bool {
	return !r.LastUpdated.Before(other.LastUpdated)
}

// StoredTime is t as the presence store keeps it: UTC at microsecond
// precision, so a record compares equal before and after a round trip.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// CanTransition reports whether from -> to is allowed. Re-applying the
// current status is always allowed.
func CanTransition(from, to PresenceStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusNotArrived:
		return to == StatusPresent
	case StatusPresent:
		return to == StatusCheckedOut || to == StatusNotArrived
	case StatusCheckedOut:
		return to == StatusNotArrived
	default:
		return false
	}
}

// ApplyTransition returns the record after moving it to status at now.
// Present keeps an existing check-in time; NotArrived clears it;
// CheckedOut keeps the original check-in time.
func ApplyTransition(current PresenceRecord, status PresenceStatus, now time.Time) (PresenceRecord, error) {
	if !status.Valid() {
		return PresenceRecord{}, WrapError(ErrInvalidInput, "apply transition", fmt.Errorf("unknown status %q", status))
	}
	if !CanTransition(current.Status, status) {
		return PresenceRecord{}, WrapError(
			ErrInvalidTransition,
			"apply transition",
			fmt.Errorf("attendee=%s %q -> %q", current.AttendeeID, current.Status, status),
		)
	}

	now = StoredTime(now)
	next := current
	next.Status = status
	next.LastUpdated = now

	switch status {
	case StatusPresent:
		if current.Status != StatusPresent || current.CheckedInAt == nil {
			at := now
			next.CheckedInAt = &at
		}
	case StatusNotArrived:
		next.CheckedInAt = nil
	}
	return next, nil
}

// ResetRecord forces a record back to NotArrived, as the operator bulk
// reset does. It reports whether the status actually changed.
func ResetRecord(current PresenceRecord, now time.Time) (PresenceRecord, bool) {
	next := current
	next.Status = StatusNotArrived
	next.LastUpdated = StoredTime(now)
	next.CheckedInAt = nil
	return next, current.Status != StatusNotArrived
}

// PresenceChange is broadcast to observers after the store confirmed a write.
type PresenceChange struct {
	ViewerID string         `json:"viewerId"`
	Record   PresenceRecord `json:"record"`
}

type ResetResult struct {
	EventID string `json:"eventId"`
	Total   int    `json:"total"`
	Changed int    `json:"changed"`
}
