package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/grounded-qa/internal/core/domain"
	"github.com/kirillkom/grounded-qa/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

// Handler answers one request received on the subject.
type Handler func(ctx context.Context, req domain.AnswerRequest) (*domain.PipelineResponse, error)

type Transport struct {
	conn       *nats.Conn
	subject    string
	queueGroup string
	executor   *resilience.Executor
}

type Options struct {
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string, options Options) (*Transport, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	queueGroup := options.QueueGroup
	if queueGroup == "" {
		queueGroup = "answer-workers"
	}

	conn, err := nats.Connect(
		url,
		nats.Name("grounded-qa"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Transport{
		conn:       conn,
		subject:    subject,
		queueGroup: queueGroup,
		executor:   options.ResilienceExecutor,
	}, nil
}

func (t *Transport) Close() {
	if t.conn != nil {
		t.conn.Close()
	}
}

// Ask sends msg and waits for the worker's reply.
func (t *Transport) Ask(ctx context.Context, msg domain.AnswerRequest) (*domain.PipelineResponse, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal ask message: %w", err)
	}

	reply, err := resilience.ExecuteValue(ctx, t.executor, "nats.request", func(callCtx context.Context) (*nats.Msg, error) {
		m, err := t.conn.RequestWithContext(callCtx, t.subject, payload)
		if err != nil {
			return nil, fmt.Errorf("nats request: %w", err)
		}
		return m, nil
	}, classifyNATSError)
	if err != nil {
		return nil, resilience.WrapTemporary("nats request", err, classifyNATSError)
	}
	return DecodeReply(reply.Data)
}

// Serve answers requests on the subject as part of the queue group until
// ctx is cancelled, then drains the subscription.
func (t *Transport) Serve(ctx context.Context, handler Handler) error {
	sub, err := t.conn.QueueSubscribe(t.subject, t.queueGroup, func(msg *nats.Msg) {
		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := msg.Respond(HandleMessage(handlerCtx, msg.Data, handler)); err != nil {
			slog.Error("nats_respond_failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := t.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	slog.Info("nats_serving", "subject", t.subject, "queue_group", t.queueGroup)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := t.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
