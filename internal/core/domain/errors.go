package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUpstreamAuth      = errors.New("upstream rejected credentials")
	ErrTemporary         = errors.New("temporary failure")
	ErrCorpusNotReady    = errors.New("corpus not ready")
	ErrEmbeddingMismatch = errors.New("embedding mismatch")
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
