// Package journal is the observability sink for protocol traffic: one
// record per inbound message and one per outbound dispatch attempt.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// Kind distinguishes inbound messages from dispatch attempts.
type Kind string

const (
	KindInbound  Kind = "inbound"
	KindDispatch Kind = "dispatch"
)

// Record is one journal entry. Bodies are never stored, only their
// canonical digest.
type Record struct {
	Kind          Kind
	Action        protocol.Action
	TransactionID string
	MessageID     string
	AckStatus     protocol.AckStatus
	Target        string
	HTTPStatus    int
	Error         string
	BodyDigest    string
	Duration      time.Duration
	At            time.Time
}

// Sink persists or emits journal records.
type Sink interface {
	Record(ctx context.Context, r Record) error
}

// MultiSink fans a record out to several sinks and joins their errors.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, r Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards records.
type Nop struct{}

func (Nop) Record(context.Context, Record) error { return nil }
