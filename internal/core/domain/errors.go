package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrUnparsableDocument  = errors.New("unparsable document")
	ErrInvalidToken        = errors.New("invalid token")
	ErrRenderFailed        = errors.New("render failed")
	ErrSyncFailed          = errors.New("sync failed")
	ErrAttendeeNotFound    = errors.New("attendee not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTemporary           = errors.New("temporary failure")
	ErrMatchesNotAvailable = errors.New("matches not available")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
