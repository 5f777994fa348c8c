package usecase

import (
	"sort"
	"strings"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

const (
	DefaultProfilePrefix = "Profile_"
	DefaultExtension     = ".pdf"
)

// DedupRules describe how file names collapse onto canonical keys.
type DedupRules struct {
	Extensions    []string
	ProfilePrefix string
}

func (r DedupRules) normalize() DedupRules {
	out := r
	if len(out.Extensions) == 0 {
		out.Extensions = []string{DefaultExtension}
	}
	exts := make([]string, 0, len(out.Extensions))
	for _, ext := range out.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = []string{DefaultExtension}
	}
	out.Extensions = exts
	return out
}

// matchedExtension returns the accepted extension name ends with, compared
// case-insensitively.
func (r DedupRules) matchedExtension(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range r.Extensions {
		if strings.HasSuffix(lower, ext) {
			return ext, true
		}
	}
	return "", false
}

// CanonicalKey strips the profile prefix and the extension; the extension
// is stripped twice so "Ben Theis.pdf.pdf" and "Ben Theis.pdf" collapse.
func (r DedupRules) CanonicalKey(name string) string {
	rules := r.normalize()
	ext, ok := rules.matchedExtension(name)
	key := name
	if rules.ProfilePrefix != "" {
		key = strings.TrimPrefix(key, rules.ProfilePrefix)
	}
	if !ok {
		return key
	}
	for i := 0; i < 2; i++ {
		if strings.HasSuffix(strings.ToLower(key), ext) {
			key = key[:len(key)-len(ext)]
		}
	}
	return key
}

func (r DedupRules) isPrefixed(name string) bool {
	return r.ProfilePrefix != "" && strings.HasPrefix(name, r.ProfilePrefix)
}

// Deduplicate filters names to accepted extensions and keeps one file per
// canonical key. An unprefixed file always replaces a stored prefixed one
// and a prefixed file never replaces anything already stored. Names are
// visited in sorted order so the outcome does not depend on directory
// listing order. The result is ordered by canonical key.
func Deduplicate(names []string, rules DedupRules) []domain.SourceDocument {
	rules = rules.normalize()

	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	chosen := make(map[string]string, len(sorted))
	for _, name := range sorted {
		if _, ok := rules.matchedExtension(name); !ok {
			continue
		}
		key := rules.CanonicalKey(name)
		if key == "" {
			continue
		}
		if _, exists := chosen[key]; !exists || !rules.isPrefixed(name) {
			chosen[key] = name
		}
	}

	out := make([]domain.SourceDocument, 0, len(chosen))
	for key, name := range chosen {
		out = append(out, domain.SourceDocument{FileName: name, CanonicalKey: key})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CanonicalKey < out[j].CanonicalKey
	})
	return out
}
