package observability

import (
	"go.opentelemetry.io/otel/attribute"
)

// Protocol semantic convention attributes.
var (
	AttrAction        = attribute.Key("ondc.action")
	AttrAck           = attribute.Key("ondc.ack")
	AttrTransactionID = attribute.Key("ondc.transaction_id")
	AttrMessageID     = attribute.Key("ondc.message_id")
	AttrDomain        = attribute.Key("ondc.domain")
	AttrOutcome       = attribute.Key("ondc.dispatch.outcome")
)

// Dispatch outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// DispatchOutcome classifies a delivery attempt: no exchange, a non-2xx
// response, or success.
func DispatchOutcome(httpStatus int, err error) string {
	switch {
	case err != nil:
		return OutcomeFailed
	case httpStatus < 200 || httpStatus > 299:
		return OutcomeRejected
	default:
		return OutcomeDelivered
	}
}

// MessageAttributes identifies an inbound message on a span.
func MessageAttributes(action, domain, transactionID, messageID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrAction.String(action),
		AttrDomain.String(domain),
		AttrTransactionID.String(transactionID),
		AttrMessageID.String(messageID),
	}
}
