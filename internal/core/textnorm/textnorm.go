// Package textnorm holds the lossy, display-oriented cleanup applied to
// extracted resume text and the pattern-based contact field extraction.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}]+`)
	newlineRun    = regexp.MustCompile(`\n+`)
	disallowed    = regexp.MustCompile(`[^\w\s.,@()-]`)

	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	phonePattern   = regexp.MustCompile(`(\+?1[-.\s]?)?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})`)
	networkPattern = regexp.MustCompile(`linkedin\.com/in/([a-zA-Z0-9-]+)`)
)

// Normalize collapses whitespace runs to one space, newline runs to one
// newline and then drops everything outside word characters, whitespace and
// . , @ ( ) -, in that order.
func Normalize(text string) string {
	out := whitespaceRun.ReplaceAllString(text, " ")
	out = newlineRun.ReplaceAllString(out, "\n")
	out = disallowed.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// ExtractContact runs on unnormalised text so characters such as + in phone
// numbers survive. The first match per field wins; no match leaves the field
// empty.
func ExtractContact(text string) domain.ContactInfo {
	return domain.ContactInfo{
		Email:         emailPattern.FindString(text),
		Phone:         phonePattern.FindString(text),
		NetworkHandle: networkPattern.FindString(text),
	}
}
