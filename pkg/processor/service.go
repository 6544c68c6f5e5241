// Package processor runs one inbound protocol message through
// validate, compute and build, and schedules the signed callback when the
// action calls for one.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/dispatch"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/journal"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/observability"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/pricing"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/responder"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/validation"
)

// Telemetry receives spans and counters for handled messages.
type Telemetry interface {
	TrackOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error))
	RecordMessage(ctx context.Context, action, ack string)
}

type nopTelemetry struct{}

func (nopTelemetry) TrackOperation(ctx context.Context, _ string, _ ...attribute.KeyValue) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (nopTelemetry) RecordMessage(context.Context, string, string) {}

// Service processes inbound messages. It holds only read-only collaborators
// and is safe for concurrent use.
type Service struct {
	engine    *pricing.Engine
	builder   *responder.Builder
	queue     dispatch.Enqueuer
	callbacks map[protocol.Action]bool
	journal   journal.Sink
	telemetry Telemetry
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCallbacks enqueues a signed callback to the requester's bap_uri for
// each listed request action.
func WithCallbacks(q dispatch.Enqueuer, actions ...protocol.Action) Option {
	return func(s *Service) {
		s.queue = q
		for _, a := range actions {
			s.callbacks[a.Base()] = true
		}
	}
}

// WithJournal records every inbound message to sink.
func WithJournal(sink journal.Sink) Option {
	return func(s *Service) { s.journal = sink }
}

// WithTelemetry reports spans and counters to t.
func WithTelemetry(t Telemetry) Option {
	return func(s *Service) { s.telemetry = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service.
func NewService(engine *pricing.Engine, builder *responder.Builder, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		builder:   builder,
		callbacks: make(map[protocol.Action]bool),
		journal:   journal.Nop{},
		telemetry: nopTelemetry{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "processor")
	return s
}

// HandleBody decodes body and handles it. It returns
// protocol.ErrMalformedBody when the body is not a JSON object; every other
// outcome, including a mistyped field, is an envelope.
func (s *Service) HandleBody(ctx context.Context, action protocol.Action, body []byte) (*protocol.Envelope, error) {
	req, err := protocol.DecodeRequest(body)
	var fe *protocol.FieldError
	switch {
	case errors.As(err, &fe):
		return s.handle(ctx, action, req, body, &validation.ValidationError{Field: fe.Field, Message: fe.Error()}), nil
	case err != nil:
		return nil, err
	}
	return s.handle(ctx, action, req, body, nil), nil
}

// Handle processes an already decoded request. The returned envelope is
// always well formed: ACK with the computed payload or NACK with an error.
func (s *Service) Handle(ctx context.Context, action protocol.Action, req *protocol.Request) *protocol.Envelope {
	return s.handle(ctx, action, req, nil, nil)
}

// handle runs req through the pipeline. A non-nil rejected skips processing
// and answers with a NACK for it.
func (s *Service) handle(ctx context.Context, action protocol.Action, req *protocol.Request, body []byte, rejected error) *protocol.Envelope {
	start := s.now()
	in := inboundContext(req)

	ctx, done := s.telemetry.TrackOperation(ctx, "handle "+string(action.Base()),
		observability.MessageAttributes(string(action), in.Domain, in.TransactionID, in.MessageID)...)

	var env *protocol.Envelope
	err := rejected
	if err == nil {
		env, err = s.process(ctx, action, req)
	}
	if err != nil {
		if !validation.IsValidationError(err) {
			s.logger.ErrorContext(ctx, "message processing failed",
				"action", action, "transaction_id", in.TransactionID, "error", err)
		}
		env = s.builder.Nack(req.ContextOrNil(), action, err)
	}
	done(err)

	s.telemetry.RecordMessage(ctx, string(action.Base()), string(env.Message.Ack.Status))
	rec := journal.Record{
		Kind:          journal.KindInbound,
		Action:        action,
		TransactionID: in.TransactionID,
		MessageID:     in.MessageID,
		AckStatus:     env.Message.Ack.Status,
		BodyDigest:    journal.BodyDigest(body),
		Duration:      s.now().Sub(start),
		At:            start,
	}
	if err != nil {
		rec.Error = responder.NackMessage(err)
	}
	if jerr := s.journal.Record(ctx, rec); jerr != nil {
		s.logger.WarnContext(ctx, "journal write failed", "error", jerr)
	}

	if env.Acknowledged() {
		s.scheduleCallback(ctx, action, in, env)
	}
	return env
}

func (s *Service) process(ctx context.Context, action protocol.Action, req *protocol.Request) (*protocol.Envelope, error) {
	params, err := validation.Validate(action, req)
	if err != nil {
		return nil, err
	}

	var env *protocol.Envelope
	switch params.Action {
	case protocol.ActionSearch:
		items, err := s.engine.Search(ctx, *params.Search)
		if err != nil {
			return nil, err
		}
		env = s.builder.Search(req.Context, items)
	case protocol.ActionSelect:
		env = s.builder.Select(req.Context, params.Order, s.quote(ctx, params.Order))
	case protocol.ActionInit:
		env = s.builder.Init(req.Context, params.Order, s.quote(ctx, params.Order))
	case protocol.ActionUpdate:
		env = s.builder.Update(req.Context, params.Order, s.quote(ctx, params.Order))
	case protocol.ActionCancel:
		env = s.builder.Cancel(req.Context, params.Order, s.quote(ctx, params.Order))
	case protocol.ActionStatus:
		env = s.builder.Status(req.Context, params.Order, s.quote(ctx, params.Order))
	case protocol.ActionTrack:
		env = s.builder.Track(req.Context, params.Order)
	default:
		return nil, fmt.Errorf("no handler for action %q", params.Action)
	}

	if err := protocol.ValidateEnvelope(env); err != nil {
		return nil, fmt.Errorf("built envelope failed conformance: %w", err)
	}
	return env, nil
}

func (s *Service) quote(ctx context.Context, p *protocol.OrderParams) pricing.Quote {
	return s.engine.Quote(ctx, p.Items, p.Fulfillment)
}

// scheduleCallback hands a reissued copy of env to the queue. Queue
// failures are logged and never change the synchronous response.
func (s *Service) scheduleCallback(ctx context.Context, action protocol.Action, in protocol.Context, env *protocol.Envelope) {
	if s.queue == nil || !s.callbacks[action.Base()] {
		return
	}
	if in.BapURI == "" {
		s.logger.InfoContext(ctx, "no bap_uri, skipping callback", "action", action, "transaction_id", in.TransactionID)
		return
	}

	job := dispatch.Job{
		Action:    env.Context.Action,
		TargetURI: in.BapURI,
		Envelope:  s.builder.Reissue(env),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		level := slog.LevelError
		if errors.Is(err, dispatch.ErrQueueFull) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "callback not scheduled",
			"action", job.Action, "target", in.BapURI, "transaction_id", in.TransactionID, "error", err)
	}
}

func inboundContext(req *protocol.Request) protocol.Context {
	if req == nil || req.Context == nil {
		return protocol.Context{}
	}
	return *req.Context
}
