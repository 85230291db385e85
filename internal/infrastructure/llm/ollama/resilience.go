package ollama

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/grounded-qa/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx answer from the Ollama API.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, body)
}

func classifyOllamaError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyCommon(err); ok {
		return class
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ClassifyHTTPStatus(statusErr.StatusCode)
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
