package api

import (
	"errors"
	"net/http"

	"lineagehub/internal/domain"
)

// httpStatusFromDomainError picks the response status for a handler error.
// Anything that is not one of the classified domain kinds is a 500; the
// handler logs those and hides the message from the client.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
