package httpadapter

import (
	"net/http"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrInvalidToken):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrAttendeeNotFound), domain.IsKind(err, domain.ErrMatchesNotAvailable):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrStorageUnavailable),
		domain.IsKind(err, domain.ErrSyncFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
