package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
)

const (
	codeInvalidInput   = "invalid_input"
	codeTemporary      = "temporary"
	codeCorpusNotReady = "corpus_not_ready"
	codeInternal       = "internal"
)

type errorReply struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HandleMessage decodes a request, runs handler and encodes either the
// PipelineResponse or an error reply. A cancelled ctx yields a temporary
// error reply so the requester can retry another worker.
func HandleMessage(ctx context.Context, data []byte, handler Handler) []byte {
	if ctx.Err() != nil {
		return encodeError("worker shutting down", codeTemporary)
	}

	var msg domain.AnswerRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return encodeError("invalid request body", codeInvalidInput)
	}

	resp, err := handler(ctx, msg)
	if err != nil {
		switch {
		case domain.IsKind(err, domain.ErrInvalidInput):
			return encodeError("Empty query", codeInvalidInput)
		case domain.IsKind(err, domain.ErrCorpusNotReady):
			return encodeError("corpus not ready", codeCorpusNotReady)
		case domain.IsKind(err, domain.ErrTemporary), ctx.Err() != nil:
			return encodeError("temporary failure", codeTemporary)
		default:
			return encodeError("internal error", codeInternal)
		}
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return encodeError("encode response", codeInternal)
	}
	return out
}

// DecodeReply turns a worker reply back into a response or a typed error.
func DecodeReply(data []byte) (*domain.PipelineResponse, error) {
	var probe errorReply
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if probe.Error != "" {
		cause := errors.New(probe.Error)
		switch probe.Code {
		case codeInvalidInput:
			return nil, domain.WrapError(domain.ErrInvalidInput, "nats answer", cause)
		case codeCorpusNotReady:
			return nil, domain.WrapError(domain.ErrCorpusNotReady, "nats answer", cause)
		case codeTemporary:
			return nil, domain.WrapError(domain.ErrTemporary, "nats answer", cause)
		default:
			return nil, fmt.Errorf("nats answer: %w", cause)
		}
	}

	var resp domain.PipelineResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &resp, nil
}

func encodeError(message, code string) []byte {
	out, _ := json.Marshal(errorReply{Error: message, Code: code})
	return out
}
