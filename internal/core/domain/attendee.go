package domain

import (
	"strings"
	"unicode"
)

// AttendeeSlug derives a URL-safe attendee identifier from a display name:
// lower-cased, anything but ASCII letters, digits, whitespace and hyphens
// dropped, whitespace and hyphen runs collapsed to one hyphen. Applying it
// to its own output returns the same value.
func AttendeeSlug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingSep = true
		}
	}
	return b.String()
}

// RosterEntry is one attendee of an event as supplied by the organisers.
type RosterEntry struct {
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string `json:"name" yaml:"name"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Company string `json:"company,omitempty" yaml:"company,omitempty"`
}

// EnsureID fills ID from the display name when the roster left it empty.
func (e *RosterEntry) EnsureID() {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = AttendeeSlug(e.Name)
	}
}
