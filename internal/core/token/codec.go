// Package token encodes and decodes the URL-shaped identity tokens printed
// on badges and shown as QR codes.
//
// A check-in token looks like
//
//	<base>/checkin?attendee=<id>&event=<id>[&name=<display name>]
//
// and its siblings use /matches and /profile with their own parameter sets.
// Values are percent-encoded exactly like JavaScript's encodeURIComponent so
// tokens printed by earlier tooling stay byte-identical.
package token

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type Kind string

const (
	KindCheckIn Kind = "checkin"
	KindMatches Kind = "matches"
	KindProfile Kind = "profile"
)

const (
	paramAttendee = "attendee"
	paramEvent    = "event"
	paramName     = "name"
)

type kindSpec struct {
	route  string
	params []string
}

// Parameter order is fixed per kind so encoding is reproducible.
var kinds = map[Kind]kindSpec{
	KindCheckIn: {route: "checkin", params: []string{paramAttendee, paramEvent, paramName}},
	KindMatches: {route: "matches", params: []string{paramEvent, paramAttendee}},
	KindProfile: {route: "profile", params: []string{paramAttendee, paramEvent}},
}

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if k == "" {
		return KindCheckIn, nil
	}
	if _, ok := kinds[k]; !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "parse token kind", fmt.Errorf("unknown kind %q", raw))
	}
	return k, nil
}

type Codec struct {
	baseURL string
}

func NewCodec(baseURL string) *Codec {
	return &Codec{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (c *Codec) BaseURL() string {
	return c.baseURL
}

// Encode builds the token for kind. Attendee and event ids are required;
// display name is only carried by check-in tokens and is omitted when empty.
func (c *Codec) Encode(kind Kind, fields domain.TokenFields) (string, error) {
	spec, ok := kinds[kind]
	if !ok {
		return "", domain.WrapError(domain.ErrInvalidInput, "encode token", fmt.Errorf("unknown kind %q", kind))
	}
	if fields.AttendeeID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "encode token", errors.New("attendee id is required"))
	}
	if fields.EventID == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "encode token", errors.New("event id is required"))
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/")
	b.WriteString(spec.route)

	sep := byte('?')
	for _, param := range spec.params {
		value := fieldValue(fields, param)
		if value == "" {
			continue
		}
		b.WriteByte(sep)
		b.WriteString(param)
		b.WriteByte('=')
		b.WriteString(EscapeComponent(value))
		sep = '&'
	}
	return b.String(), nil
}

// Decode parses raw as a token of the given kind. It returns ok=false with a
// nil error when raw is a well-formed URL for some other route, and an
// ErrInvalidToken error when raw is not an absolute URL at all. Missing
// parameters decode to empty fields.
func (c *Codec) Decode(kind Kind, raw string) (domain.TokenFields, bool, error) {
	spec, ok := kinds[kind]
	if !ok {
		return domain.TokenFields{}, false, domain.WrapError(domain.ErrInvalidInput, "decode token", fmt.Errorf("unknown kind %q", kind))
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return domain.TokenFields{}, false, domain.WrapError(domain.ErrInvalidToken, "decode token", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return domain.TokenFields{}, false, domain.WrapError(domain.ErrInvalidToken, "decode token", fmt.Errorf("not an absolute url: %q", raw))
	}
	if !hasRouteSegment(u.Path, spec.route) {
		return domain.TokenFields{}, false, nil
	}

	// ParseQuery keeps every pair it could read; malformed ones are skipped.
	query, _ := url.ParseQuery(u.RawQuery)

	var fields domain.TokenFields
	for _, param := range spec.params {
		setFieldValue(&fields, param, query.Get(param))
	}
	return fields, true, nil
}

func (c *Codec) EncodeCheckIn(attendeeID, eventID, displayName string) (string, error) {
	return c.Encode(KindCheckIn, domain.TokenFields{AttendeeID: attendeeID, EventID: eventID, DisplayName: displayName})
}

func (c *Codec) DecodeCheckIn(raw string) (domain.TokenFields, bool, error) {
	return c.Decode(KindCheckIn, raw)
}

func (c *Codec) EncodeMatches(attendeeID, eventID string) (string, error) {
	return c.Encode(KindMatches, domain.TokenFields{AttendeeID: attendeeID, EventID: eventID})
}

func (c *Codec) EncodeProfile(attendeeID, eventID string) (string, error) {
	return c.Encode(KindProfile, domain.TokenFields{AttendeeID: attendeeID, EventID: eventID})
}

func hasRouteSegment(path, route string) bool {
	for _, segment := range strings.Split(path, "/") {
		if segment == route {
			return true
		}
	}
	return false
}

func fieldValue(f domain.TokenFields, param string) string {
	switch param {
	case paramAttendee:
		return f.AttendeeID
	case paramEvent:
		return f.EventID
	case paramName:
		return f.DisplayName
	default:
		return ""
	}
}

func setFieldValue(f *domain.TokenFields, param, value string) {
	switch param {
	case paramAttendee:
		f.AttendeeID = value
	case paramEvent:
		f.EventID = value
	case paramName:
		f.DisplayName = value
	}
}
