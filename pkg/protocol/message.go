package protocol

// AckStatus is the terminal outcome of processing a message.
type AckStatus string

const (
	StatusACK  AckStatus = "ACK"
	StatusNACK AckStatus = "NACK"
)

// NackErrorCode is the single error code carried by rejected messages.
const NackErrorCode = "500"

// Request is an inbound protocol message. Missing top-level keys decode to
// nil pointers.
type Request struct {
	Context *Context        `json:"context"`
	Message *RequestMessage `json:"message"`
}

// RequestMessage holds the action-specific root keys.
type RequestMessage struct {
	Intent               *Intent `json:"intent,omitempty"`
	Order                *Order  `json:"order,omitempty"`
	OrderID              string  `json:"order_id,omitempty"`
	CancellationReasonID string  `json:"cancellation_reason_id,omitempty"`
	UpdateTarget         string  `json:"update_target,omitempty"`
}

// Ack is the acknowledgement block of a response.
type Ack struct {
	Status AckStatus `json:"status"`
}

// Error explains a NACK.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Tracking is the on_track payload.
type Tracking struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

// ResponseMessage is the message half of an outbound envelope. Which of the
// optional sub-objects is populated depends on the action.
type ResponseMessage struct {
	Ack      Ack       `json:"ack"`
	Catalog  *Catalog  `json:"catalog,omitempty"`
	Order    *Order    `json:"order,omitempty"`
	Tracking *Tracking `json:"tracking,omitempty"`
	Error    *Error    `json:"error,omitempty"`
}

// Envelope is an outbound response or callback.
type Envelope struct {
	Context Context         `json:"context"`
	Message ResponseMessage `json:"message"`
}

// Acknowledged reports whether the envelope carries an ACK.
func (e *Envelope) Acknowledged() bool {
	return e.Message.Ack.Status == StatusACK
}

// ContextOrNil returns the request context, tolerating a nil request.
func (r *Request) ContextOrNil() *Context {
	if r == nil {
		return nil
	}
	return r.Context
}
