package httpadapter

import (
	"net/http"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrCorpusNotReady):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUpstreamAuth):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps collaborator details out of client responses.
func errorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case http.StatusBadGateway:
		return "upstream service unavailable"
	default:
		return "internal error"
	}
}
