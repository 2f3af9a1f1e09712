package httpadapter

import (
	"net/http"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

// statusClientClosedRequest is the nginx convention for a caller that went
// away before the answer was ready.
const statusClientClosedRequest = 499

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrCanceled):
		return statusClientClosedRequest
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrProviderDown),
		domain.IsKind(err, domain.ErrSafeMode),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
