package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueFull is returned when a job cannot be buffered.
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrQueueClosed is returned for jobs enqueued after Close.
	ErrQueueClosed = errors.New("dispatch queue closed")
)

// ErrorKind classifies a failed delivery.
type ErrorKind string

const (
	KindTarget    ErrorKind = "target"
	KindEncode    ErrorKind = "encode"
	KindSigning   ErrorKind = "signing"
	KindTransport ErrorKind = "transport"
)

// DispatchError is returned by Deliver when a callback could not be sent.
// Non-2xx responses are not errors; they are reported in Result.
type DispatchError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *DispatchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("dispatch %s failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("dispatch %s failure for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
