package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

// ClassifyCommon handles the outcomes shared by every collaborator:
// cancellation, an open breaker and network failures. ok is false when the
// caller has to decide from its own error types.
func ClassifyCommon(err error) (class ErrorClassification, ok bool) {
	if err == nil {
		return ErrorClassification{}, true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassification{}, true
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: true, RecordFailure: true}, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}, true
	}
	return ErrorClassification{}, false
}

// ClassifyHTTPStatus retries throttling and upstream 5xx answers. Other
// statuses are the caller's fault and do not count against the breaker.
func ClassifyHTTPStatus(statusCode int) ErrorClassification {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return ErrorClassification{}
	}
}

// WrapTemporary tags err with domain.ErrTemporary when it is still retryable
// after the executor gave up, or when the breaker rejected the call.
func WrapTemporary(operation string, err error, classifier ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifier == nil {
		classifier = defaultClassifier
	}
	if classifier(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
