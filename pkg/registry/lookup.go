// Package registry queries the network registry for participant entries.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/signing"
)

// LookupPath is appended to the configured registry base URL.
const LookupPath = "/v2.0/lookup"

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 4 << 20
)

// ErrInvalidEntry is returned by ValidateEntry.
var ErrInvalidEntry = errors.New("registry entry missing subscriber_id or ukId")

// Query is the lookup request body. Field order matches the registry's
// documented payload; the signature covers these exact bytes.
type Query struct {
	SubscriberID string `json:"subscriber_id"`
	Domain       string `json:"domain"`
	UkID         string `json:"ukId"`
	Country      string `json:"country"`
	City         string `json:"city"`
	Type         string `json:"type"`
}

// Merge returns q with every non-empty field of override applied.
func (q Query) Merge(override Query) Query {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	return Query{
		SubscriberID: pick(q.SubscriberID, override.SubscriberID),
		Domain:       pick(q.Domain, override.Domain),
		UkID:         pick(q.UkID, override.UkID),
		Country:      pick(q.Country, override.Country),
		City:         pick(q.City, override.City),
		Type:         pick(q.Type, override.Type),
	}
}

// Subscriber is one registry entry.
type Subscriber struct {
	SubscriberID     string `json:"subscriber_id"`
	UkID             string `json:"ukId"`
	BrID             string `json:"br_id,omitempty"`
	SubscriberURL    string `json:"subscriber_url,omitempty"`
	Domain           string `json:"domain,omitempty"`
	Country          string `json:"country,omitempty"`
	City             string `json:"city,omitempty"`
	Type             string `json:"type,omitempty"`
	SigningPublicKey string `json:"signing_public_key,omitempty"`
	EncrPublicKey    string `json:"encr_public_key,omitempty"`
	Status           string `json:"status,omitempty"`
	ValidFrom        string `json:"valid_from,omitempty"`
	ValidUntil       string `json:"valid_until,omitempty"`
}

// ValidateEntry checks the fields every usable entry carries.
func ValidateEntry(s Subscriber) error {
	if strings.TrimSpace(s.SubscriberID) == "" || strings.TrimSpace(s.UkID) == "" {
		return ErrInvalidEntry
	}
	return nil
}

// Result is a completed lookup exchange.
type Result struct {
	HTTPStatus  int
	Query       Query
	Subscribers []Subscriber
	Raw         []byte
}

// OK reports a 2xx response.
func (r Result) OK() bool { return r.HTTPStatus >= 200 && r.HTTPStatus < 300 }

// Signer signs request bodies.
type Signer interface {
	Sign(body []byte) (signing.AuthorizationHeader, error)
}

// Client performs signed lookups.
type Client struct {
	baseURL  string
	defaults Query
	signer   Signer
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a Client. defaults fills fields a caller leaves empty.
func NewClient(baseURL string, defaults Query, signer Signer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		defaults: defaults,
		signer:   signer,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   logger.With("component", "registry"),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Lookup queries the registry. Any HTTP status is a completed exchange;
// only transport, encoding and signing failures return an error.
func (c *Client) Lookup(ctx context.Context, override Query) (Result, error) {
	q := c.defaults.Merge(override)
	res := Result{Query: q}

	body, err := json.Marshal(q)
	if err != nil {
		return res, fmt.Errorf("encode lookup: %w", err)
	}
	auth, err := c.signer.Sign(body)
	if err != nil {
		return res, fmt.Errorf("sign lookup: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LookupPath, bytes.NewReader(body))
	if err != nil {
		return res, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", auth.String())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return res, fmt.Errorf("lookup request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	res.HTTPStatus = resp.StatusCode
	res.Raw, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return res, fmt.Errorf("read lookup response: %w", err)
	}
	res.Subscribers = decodeSubscribers(res.Raw)

	c.logger.InfoContext(ctx, "registry lookup",
		"subscriber_id", q.SubscriberID, "domain", q.Domain, "http_status", res.HTTPStatus, "entries", len(res.Subscribers))
	return res, nil
}

// decodeSubscribers accepts either a list of entries or a single entry.
func decodeSubscribers(raw []byte) []Subscriber {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '[':
		var list []Subscriber
		if err := json.Unmarshal(trimmed, &list); err == nil {
			return list
		}
	case '{':
		var one Subscriber
		if err := json.Unmarshal(trimmed, &one); err == nil && one.SubscriberID != "" {
			return []Subscriber{one}
		}
	}
	return nil
}
