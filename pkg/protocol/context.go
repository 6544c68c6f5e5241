package protocol

import "time"

// DefaultTTL is the time-to-live stamped on every outbound context.
const DefaultTTL = "PT30S"

// Context carries routing and correlation data shared by every message in a
// transaction. BppID and BppURI are only populated on responses.
type Context struct {
	Domain        string `json:"domain,omitempty"`
	Country       string `json:"country,omitempty"`
	City          string `json:"city,omitempty"`
	Action        Action `json:"action,omitempty"`
	CoreVersion   string `json:"core_version,omitempty"`
	BapID         string `json:"bap_id,omitempty"`
	BapURI        string `json:"bap_uri,omitempty"`
	BppID         string `json:"bpp_id,omitempty"`
	BppURI        string `json:"bpp_uri,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	MessageID     string `json:"message_id,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
	TTL           string `json:"ttl,omitempty"`
}

// FormatTimestamp renders t the way context timestamps are written.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
