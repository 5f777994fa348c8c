// Package roster reads the organisers' attendee list. JSON files are read
// through the YAML decoder, which accepts them as a subset.
package roster

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type document struct {
	Attendees []domain.RosterEntry `yaml:"attendees"`
}

func LoadFile(path string) ([]domain.RosterEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorageUnavailable, "read roster "+path, err)
	}
	return Parse(raw)
}

// Parse accepts either a top-level list of entries or a mapping with an
// "attendees" list. Entries without an id get the slug of their name.
func Parse(raw []byte) ([]domain.RosterEntry, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []domain.RosterEntry{}, nil
	}

	var entries []domain.RosterEntry
	if trimmed[0] == '[' || trimmed[0] == '-' {
		if err := yaml.Unmarshal(trimmed, &entries); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse roster", err)
		}
	} else {
		var doc document
		if err := yaml.Unmarshal(trimmed, &doc); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse roster", err)
		}
		entries = doc.Attendees
	}

	seen := make(map[string]string, len(entries))
	out := make([]domain.RosterEntry, 0, len(entries))
	for i, entry := range entries {
		entry.Name = strings.TrimSpace(entry.Name)
		entry.ID = strings.TrimSpace(entry.ID)
		if entry.Name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse roster", fmt.Errorf("entry %d has no name", i))
		}
		entry.EnsureID()
		if entry.ID == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "parse roster", fmt.Errorf("entry %q yields an empty id", entry.Name))
		}
		if other, dup := seen[entry.ID]; dup {
			return nil, domain.WrapError(
				domain.ErrInvalidInput, "parse roster", fmt.Errorf("id %q shared by %q and %q", entry.ID, other, entry.Name),
			)
		}
		seen[entry.ID] = entry.Name
		out = append(out, entry)
	}
	return out, nil
}
