// Package matchesfile loads the curated matches dataset from the first
// existing file in a list of candidates.
package matchesfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type Source struct {
	paths []string
}

// New takes candidate paths in priority order. When more than one path is
// given, the last is the demo dataset.
func New(paths []string) *Source {
	return &Source{paths: append([]string(nil), paths...)}
}

func (s *Source) LoadMatches(ctx context.Context) ([]domain.Match, string, bool, error) {
	for i, path := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, "", false, err
		}
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", false, domain.WrapError(domain.ErrStorageUnavailable, "read matches "+path, err)
		}

		var matches []domain.Match
		if err := json.Unmarshal(raw, &matches); err != nil {
			return nil, "", false, fmt.Errorf("parse matches %s: %w", path, err)
		}
		if matches == nil {
			matches = []domain.Match{}
		}
		isDemo := len(s.paths) > 1 && i == len(s.paths)-1
		return matches, path, isDemo, nil
	}
	return nil, "", false, domain.WrapError(
		domain.ErrMatchesNotAvailable, "load matches", fmt.Errorf("none of %d candidate files exist", len(s.paths)),
	)
}
