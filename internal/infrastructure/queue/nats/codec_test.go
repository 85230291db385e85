package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/nats-io/nats.go"
)

func TestHandleMessageRoundTripsResponse(t *testing.T) {
	answer := "Football is a team sport."
	var got domain.AnswerRequest
	handler := func(_ context.Context, req domain.AnswerRequest) (*domain.PipelineResponse, error) {
		got = req
		return &domain.PipelineResponse{
			Answer:     &answer,
			Confidence: 0.812,
			Citations:  []domain.Citation{{Topic: "Wikipedia", ChunkID: 2}},
			Status:     domain.StatusOK,
		}, nil
	}

	reply := HandleMessage(context.Background(), []byte(`{"query":"what is football","top_k":5}`), handler)
	if got.Query != "what is football" || got.TopK != 5 {
		t.Fatalf("handler received %#v", got)
	}

	resp, err := DecodeReply(reply)
	if err != nil {
		t.Fatalf("DecodeReply() error = %v", err)
	}
	if resp.Status != domain.StatusOK || resp.AnswerText() != answer || resp.Citations[0].ChunkID != 2 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestHandleMessageMapsErrorKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{name: "invalid", err: domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("blank")), kind: domain.ErrInvalidInput},
		{name: "temporary", err: domain.WrapError(domain.ErrTemporary, "embed", errors.New("503")), kind: domain.ErrTemporary},
		{name: "not ready", err: domain.WrapError(domain.ErrCorpusNotReady, "build", errors.New("empty")), kind: domain.ErrCorpusNotReady},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reply := HandleMessage(context.Background(), []byte(`{"query":"q"}`), func(context.Context, domain.AnswerRequest) (*domain.PipelineResponse, error) {
				return nil, tc.err
			})
			_, err := DecodeReply(reply)
			if !domain.IsKind(err, tc.kind) {
				t.Fatalf("expected kind %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestHandleMessageRejectsMalformedJSON(t *testing.T) {
	called := false
	reply := HandleMessage(context.Background(), []byte(`not json`), func(context.Context, domain.AnswerRequest) (*domain.PipelineResponse, error) {
		called = true
		return nil, nil
	})
	if called {
		t.Fatalf("handler must not run for malformed input")
	}
	var body map[string]string
	if err := json.Unmarshal(reply, &body); err != nil {
		t.Fatalf("reply is not json: %v", err)
	}
	if body["code"] != codeInvalidInput {
		t.Fatalf("unexpected reply: %s", reply)
	}
}

func TestClassifyNATSErrorRetriesTimeouts(t *testing.T) {
	if !classifyNATSError(fmt.Errorf("nats request: %w", nats.ErrTimeout)).Retryable {
		t.Fatalf("expected timeout to be retryable")
	}
	if classifyNATSError(context.Canceled).Retryable {
		t.Fatalf("cancellation must not be retryable")
	}
}

func TestHandleMessageRepliesTemporaryWhenShuttingDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	handler := func(context.Context, domain.AnswerRequest) (*domain.PipelineResponse, error) {
		called = true
		return &domain.PipelineResponse{Status: domain.StatusOK}, nil
	}

	reply := HandleMessage(ctx, []byte(`{"query":"what is football?"}`), handler)
	if called {
		t.Fatalf("handler must not run after shutdown started")
	}
	_, err := DecodeReply(reply)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary reply, got %v (%s)", err, reply)
	}
}

func TestHandleMessageMapsCancelledHandlerToTemporary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := func(context.Context, domain.AnswerRequest) (*domain.PipelineResponse, error) {
		cancel()
		return nil, fmt.Errorf("embed query: %w", context.Canceled)
	}

	_, err := DecodeReply(HandleMessage(ctx, []byte(`{"query":"q"}`), handler))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary reply, got %v", err)
	}
}
