package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrMalformedBody is returned when a request body is not a JSON object.
var ErrMalformedBody = errors.New("malformed request body")

// FieldError reports a well-formed JSON body with a value of the wrong
// type. It is a protocol-level rejection, not a transport one.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return "Invalid value in request"
	}
	return "Invalid value for field: " + e.Field
}

func (e *FieldError) Unwrap() error { return e.Err }

// DecodeRequest is the only place raw request bytes become typed values.
// Bodies that are not a JSON object fail with ErrMalformedBody. A JSON
// object holding a mistyped value fails with a *FieldError alongside a
// request carrying whatever context could still be read, so the caller can
// answer with a NACK.
// Defaults are applied here so downstream code never re-checks raw shapes:
//   - an item without quantity has a quantity of 1
//   - a singular order.fulfillment / order.payment is filled from the first
//     element of the plural form when only that was sent
func DecodeRequest(body []byte) (*Request, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, ErrMalformedBody
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return partialRequest(trimmed), newFieldError(err)
	}

	if req.Message != nil && req.Message.Order != nil {
		applyOrderDefaults(req.Message.Order)
	}
	return &req, nil
}

func applyOrderDefaults(o *Order) {
	for i := range o.Items {
		if o.Items[i].Quantity == nil {
			o.Items[i].Quantity = &ItemQuantity{Count: 1}
		}
	}
	if o.Fulfillment == nil && len(o.Fulfillments) > 0 {
		f := o.Fulfillments[0]
		o.Fulfillment = &f
	}
	if o.Payment == nil && len(o.Payments) > 0 {
		p := o.Payments[0]
		o.Payment = &p
	}
}

func newFieldError(err error) *FieldError {
	fe := &FieldError{Err: err}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		fe.Field = te.Field
	}
	return fe
}

// partialRequest recovers the context of a body whose full decode failed.
// Mistyped context fields are left empty; the rest are kept.
func partialRequest(body []byte) *Request {
	var head struct {
		Context *Context `json:"context"`
	}
	_ = json.Unmarshal(body, &head)
	return &Request{Context: head.Context}
}
