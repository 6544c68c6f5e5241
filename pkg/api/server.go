package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// DefaultMaxBodyBytes bounds inbound request bodies.
const DefaultMaxBodyBytes int64 = 1 << 20

// Processor handles one decoded protocol message.
type Processor interface {
	HandleBody(ctx context.Context, action protocol.Action, body []byte) (*protocol.Envelope, error)
}

// Options configures the router.
type Options struct {
	MaxBodyBytes int64
	// RateLimiter is optional; nil disables per-IP limiting.
	RateLimiter *RateLimiter
	Logger      *slog.Logger
	// BppID is reported by /health.
	BppID string
	// TrustProxy rewrites RemoteAddr from X-Forwarded-For and X-Real-IP
	// before logging and rate limiting. Leave it off unless a proxy in
	// front of the service overwrites those headers.
	TrustProxy bool
}

// NewRouter wires the protocol routes. Both the request form (/search) and
// the callback form (/on_search) of every action are served and handled
// identically: the response is always the on_ envelope.
func NewRouter(p Processor, opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "api")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(exposeRequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(extractTrace)

	r.NotFound(WriteNotFound)
	r.MethodNotAllowed(WriteMethodNotAllowed)

	r.Get("/health", healthHandler(opts.BppID))

	r.Group(func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}
		for _, a := range protocol.RequestActions {
			h := actionHandler(p, a, opts.MaxBodyBytes)
			r.Post("/"+string(a), h)
			r.Post("/"+string(a.Callback()), h)
		}
	})
	return r
}

func actionHandler(p Processor, action protocol.Action, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WritePayloadTooLarge(w, r, limit)
				return
			}
			WriteBadRequest(w, r, "Unable to read request body")
			return
		}

		env, err := p.HandleBody(r.Context(), action, body)
		switch {
		case errors.Is(err, protocol.ErrMalformedBody):
			WriteBadRequest(w, r, "Invalid JSON")
			return
		case err != nil:
			WriteInternal(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, env)
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	BppID     string `json:"bpp_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

func healthHandler(bppID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "ok",
			BppID:     bppID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
