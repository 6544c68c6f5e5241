// Package dispatch delivers signed callback envelopes to buyer platforms.
//
// Delivery is a single attempt per callback. Failures are logged and
// journaled but never retried and never surfaced to the inbound caller.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/journal"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/signing"
)

const (
	// DefaultTimeout bounds one delivery attempt end to end.
	DefaultTimeout = 30 * time.Second
	// maxResponseBody caps how much of a peer response is retained.
	maxResponseBody = 1 << 20
)

// Job is one pending callback.
type Job struct {
	ID           string             `json:"id"`
	Action       protocol.Action    `json:"action"`
	TargetURI    string             `json:"target_uri"`
	Envelope     *protocol.Envelope `json:"envelope"`
	EnqueuedAt   time.Time          `json:"enqueued_at"`
	TraceContext map[string]string  `json:"trace_context,omitempty"`
}

// Result describes a completed HTTP exchange. Any status, including
// non-2xx, is a completed exchange.
type Result struct {
	URL        string
	HTTPStatus int
	Body       []byte
}

// HeaderSigner produces the Authorization header for a callback body.
type HeaderSigner interface {
	Sign(body []byte) (signing.AuthorizationHeader, error)
}

// Metrics receives one observation per delivery attempt.
type Metrics interface {
	RecordDispatch(ctx context.Context, action string, httpStatus int, err error, d time.Duration)
}

// Dispatcher sends callbacks over HTTP.
type Dispatcher struct {
	client  *http.Client
	signer  HeaderSigner
	journal journal.Sink
	metrics Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	timeout time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = t }
}

// WithJournal records each attempt to sink.
func WithJournal(sink journal.Sink) Option {
	return func(d *Dispatcher) { d.journal = sink }
}

// WithMetrics reports each attempt to m.
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a Dispatcher that signs every body with signer.
func NewDispatcher(signer HeaderSigner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		signer:  signer,
		journal: journal.Nop{},
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: d.timeout}
	}
	d.logger = d.logger.With("component", "dispatcher")
	d.tracer = otel.Tracer("github.com/Mindburn-Labs/ondc-bpp/pkg/dispatch")
	return d
}

// Deliver sends job once. It returns a *DispatchError when no HTTP exchange
// completed.
func (d *Dispatcher) Deliver(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	if len(job.TraceContext) > 0 {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(job.TraceContext))
	}
	ctx, span := d.tracer.Start(ctx, "dispatch "+string(job.Action),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ondc.action", string(job.Action))),
	)
	defer span.End()

	res, body, err := d.deliver(ctx, job)

	elapsed := time.Since(start)
	d.observe(ctx, job, res, body, err, elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", res.HTTPStatus))
	return res, nil
}

func (d *Dispatcher) deliver(ctx context.Context, job Job) (Result, []byte, error) {
	if job.Envelope == nil {
		return Result{}, nil, &DispatchError{Kind: KindEncode, Err: errors.New("nil envelope")}
	}
	target, err := CallbackURL(job.TargetURI, job.Action)
	if err != nil {
		return Result{}, nil, &DispatchError{Kind: KindTarget, Err: err}
	}
	res := Result{URL: target}

	body, err := json.Marshal(job.Envelope)
	if err != nil {
		return res, nil, &DispatchError{Kind: KindEncode, URL: target, Err: err}
	}

	auth, err := d.signer.Sign(body)
	if err != nil {
		return res, body, &DispatchError{Kind: KindSigning, URL: target, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return res, body, &DispatchError{Kind: KindTarget, URL: target, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", auth.String())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := d.client.Do(req)
	if err != nil {
		return res, body, &DispatchError{Kind: KindTransport, URL: target, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	res.HTTPStatus = resp.StatusCode
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return res, body, &DispatchError{Kind: KindTransport, URL: target, Err: fmt.Errorf("read response: %w", err)}
	}
	res.Body = respBody
	return res, body, nil
}

func (d *Dispatcher) observe(ctx context.Context, job Job, res Result, body []byte, err error, elapsed time.Duration) {
	rec := journal.Record{
		Kind:       journal.KindDispatch,
		Action:     job.Action,
		Target:     res.URL,
		HTTPStatus: res.HTTPStatus,
		BodyDigest: journal.BodyDigest(body),
		Duration:   elapsed,
		At:         time.Now(),
	}
	if job.Envelope != nil {
		rec.TransactionID = job.Envelope.Context.TransactionID
		rec.MessageID = job.Envelope.Context.MessageID
		rec.AckStatus = job.Envelope.Message.Ack.Status
	}
	if err != nil {
		rec.Error = err.Error()
	}

	if jerr := d.journal.Record(ctx, rec); jerr != nil {
		d.logger.WarnContext(ctx, "journal write failed", "error", jerr)
	}
	if d.metrics != nil {
		d.metrics.RecordDispatch(ctx, string(job.Action), res.HTTPStatus, err, elapsed)
	}

	switch {
	case err != nil:
		d.logger.ErrorContext(ctx, "callback failed",
			"action", job.Action, "target", res.URL, "transaction_id", rec.TransactionID, "error", err)
	case res.HTTPStatus < 200 || res.HTTPStatus > 299:
		d.logger.WarnContext(ctx, "callback rejected",
			"action", job.Action, "target", res.URL, "http_status", res.HTTPStatus, "transaction_id", rec.TransactionID)
	default:
		d.logger.InfoContext(ctx, "callback delivered",
			"action", job.Action, "target", res.URL, "http_status", res.HTTPStatus, "duration", elapsed)
	}
}

// CaptureTrace snapshots the span context in ctx for a queued job.
func CaptureTrace(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}
	return carrier
}
