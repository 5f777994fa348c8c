package domain

// TokenFields are the decoded parts of an identity token. Empty strings mean
// the parameter was absent.
type TokenFields struct {
	AttendeeID  string `json:"attendeeId,omitempty"`
	EventID     string `json:"eventId,omitempty"`
	DisplayName string `json:"name,omitempty"`
}

func (f TokenFields) HasAttendeeID() bool  { return f.AttendeeID != "" }
func (f TokenFields) HasEventID() bool     { return f.EventID != "" }
func (f TokenFields) HasDisplayName() bool { return f.DisplayName != "" }
