// Package responder assembles outbound protocol envelopes from a request
// context and computed results. Every envelope ends in one of two states:
// acknowledged (ACK) or rejected (NACK with an error block).
package responder

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/validation"
)

// GenericFailureMessage replaces any non-validation error in a NACK so that
// internal details never reach the caller.
const GenericFailureMessage = "Unable to process request"

// Identity is the configured participant identity stamped on responses.
type Identity struct {
	BppID       string
	BppURI      string
	CoreVersion string
	Country     string
	City        string

	// FallbackBapID and FallbackBapURI fill bap_id/bap_uri when the inbound
	// context does not carry them.
	FallbackBapID  string
	FallbackBapURI string
}

// Storefront is the static seller presentation embedded in catalogs and
// orders.
type Storefront struct {
	CatalogDescriptor protocol.Descriptor
	ProviderID        string
	ProviderName      protocol.Descriptor
	Location          protocol.Location
	FulfillmentID     string
	DeliveryPartner   string
	DeliveryRating    float64
	TrackingBaseURL   string
}

// DefaultStorefront is used when no provider profile is configured.
func DefaultStorefront() Storefront {
	return Storefront{
		CatalogDescriptor: protocol.Descriptor{
			Name:      "Rozana Catalog",
			ShortDesc: "Fresh groceries and household items",
			LongDesc:  "Wide selection of fresh groceries, dairy, fruits, vegetables and household essentials",
		},
		ProviderID: "provider_001",
		ProviderName: protocol.Descriptor{
			Name:      "Rozana Store",
			ShortDesc: "Your neighborhood grocery store",
			LongDesc:  "Trusted grocery store serving the community with quality products",
		},
		Location: protocol.Location{
			ID:         "location_001",
			Descriptor: &protocol.Descriptor{Name: "Rozana Main Store"},
			Address: &protocol.Address{
				Locality: "Connaught Place",
				City:     "Delhi",
				State:    "Delhi",
				Country:  "India",
			},
		},
		FulfillmentID:   "fulfillment_001",
		DeliveryPartner: "Rozana Delivery",
		DeliveryRating:  4.5,
		TrackingBaseURL: "https://track.rozana.in/orders/",
	}
}

// Builder builds envelopes. It holds no per-request state and is safe for
// concurrent use.
type Builder struct {
	identity Identity
	store    Storefront
	now      func() time.Time
	newID    func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator overrides message/transaction/order id generation.
func WithIDGenerator(gen func() string) Option {
	return func(b *Builder) { b.newID = gen }
}

// NewBuilder creates a Builder.
func NewBuilder(identity Identity, store Storefront, opts ...Option) *Builder {
	if identity.CoreVersion == "" {
		identity.CoreVersion = "1.2.0"
	}
	if identity.Country == "" {
		identity.Country = "IND"
	}
	if identity.City == "" {
		identity.City = "std:080"
	}
	b := &Builder{
		identity: identity,
		store:    store,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Context derives the response context from an inbound one (which may be
// nil). The transaction id is echoed; the message id is always new.
func (b *Builder) Context(in *protocol.Context, action protocol.Action) protocol.Context {
	var src protocol.Context
	if in != nil {
		src = *in
	}
	ctx := protocol.Context{
		Domain:        src.Domain,
		Country:       firstNonEmpty(src.Country, b.identity.Country),
		City:          firstNonEmpty(src.City, b.identity.City),
		Action:        action.Callback(),
		CoreVersion:   b.identity.CoreVersion,
		BapID:         firstNonEmpty(src.BapID, b.identity.FallbackBapID),
		BapURI:        firstNonEmpty(src.BapURI, b.identity.FallbackBapURI),
		BppID:         b.identity.BppID,
		BppURI:        b.identity.BppURI,
		TransactionID: src.TransactionID,
		MessageID:     b.newID(),
		Timestamp:     protocol.FormatTimestamp(b.now()),
		TTL:           protocol.DefaultTTL,
	}
	if ctx.TransactionID == "" {
		ctx.TransactionID = b.newID()
	}
	return ctx
}

func (b *Builder) ack(in *protocol.Context, action protocol.Action) *protocol.Envelope {
	return &protocol.Envelope{
		Context: b.Context(in, action),
		Message: protocol.ResponseMessage{Ack: protocol.Ack{Status: protocol.StatusACK}},
	}
}

// Nack builds a rejected envelope. Validation messages are passed through;
// every other error is replaced by GenericFailureMessage.
func (b *Builder) Nack(in *protocol.Context, action protocol.Action, err error) *protocol.Envelope {
	return &protocol.Envelope{
		Context: b.Context(in, action),
		Message: protocol.ResponseMessage{
			Ack:   protocol.Ack{Status: protocol.StatusNACK},
			Error: &protocol.Error{Code: protocol.NackErrorCode, Message: NackMessage(err)},
		},
	}
}

// NackMessage returns the caller-safe description of err.
func NackMessage(err error) string {
	var ve *validation.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	return GenericFailureMessage
}

// Reissue copies env with a fresh message id and timestamp, for sending the
// same payload as a separate callback message.
func (b *Builder) Reissue(env *protocol.Envelope) *protocol.Envelope {
	out := *env
	out.Context.MessageID = b.newID()
	out.Context.Timestamp = protocol.FormatTimestamp(b.now())
	return &out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
