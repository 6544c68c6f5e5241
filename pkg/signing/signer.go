// Package signing produces and verifies the Signature authorization header
// carried by every outbound protocol message: a BLAKE2b-512 body digest
// signed with the participant's Ed25519 key.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Validity is how long a produced header stays valid.
const Validity = time.Hour

// ErrNoSigningKey is returned when no private key is configured and mock
// signatures are not allowed.
var ErrNoSigningKey = errors.New("no signing key configured")

// SigningError wraps every failure to produce a header.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return "signing failed: " + e.Err.Error() }
func (e *SigningError) Unwrap() error { return e.Err }

// Signer signs message bodies for one participant key.
// The private key is held only in memory and never logged.
type Signer struct {
	subscriberID string
	uniqueKeyID  string
	privKey      ed25519.PrivateKey
	allowMock    bool
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Signer.
type Option func(*Signer)

// WithMockSignatures lets a key-less Signer emit random, flagged
// signatures. Callers must refuse this option in production.
func WithMockSignatures() Option {
	return func(s *Signer) { s.allowMock = true }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Signer) { s.logger = l }
}

// NewSigner creates a Signer. priv may be nil; Sign then fails with
// ErrNoSigningKey unless mock signatures were allowed.
func NewSigner(subscriberID, uniqueKeyID string, priv ed25519.PrivateKey, opts ...Option) *Signer {
	s := &Signer{
		subscriberID: subscriberID,
		uniqueKeyID:  uniqueKeyID,
		privKey:      priv,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "signer")
	return s
}

// KeyID returns the keyId placed in produced headers.
func (s *Signer) KeyID() string {
	return KeyID(s.subscriberID, s.uniqueKeyID)
}

// HasKey reports whether a real private key is configured.
func (s *Signer) HasKey() bool {
	return len(s.privKey) == ed25519.PrivateKeySize
}

// PublicKey returns the public half of the configured key, or nil.
func (s *Signer) PublicKey() ed25519.PublicKey {
	if !s.HasKey() {
		return nil
	}
	return s.privKey.Public().(ed25519.PublicKey)
}

// Sign produces an authorization header for the exact bytes of body.
func (s *Signer) Sign(body []byte) (AuthorizationHeader, error) {
	return s.SignAt(body, s.now())
}

// SignAt is Sign with an explicit creation time.
func (s *Signer) SignAt(body []byte, at time.Time) (AuthorizationHeader, error) {
	created := at.Unix()
	h := AuthorizationHeader{
		KeyID:     s.KeyID(),
		Algorithm: Algorithm,
		Created:   created,
		Expires:   created + int64(Validity/time.Second),
		Headers:   SignedHeaders,
	}

	if !s.HasKey() {
		if !s.allowMock {
			return AuthorizationHeader{}, &SigningError{Err: ErrNoSigningKey}
		}
		filler := make([]byte, ed25519.SignatureSize)
		if _, err := rand.Read(filler); err != nil {
			return AuthorizationHeader{}, &SigningError{Err: fmt.Errorf("mock signature: %w", err)}
		}
		h.Signature = base64.StdEncoding.EncodeToString(filler)
		h.Mock = true
		s.logger.Warn("emitting unverifiable mock signature", "key_id", h.KeyID)
		return h, nil
	}

	msg := SigningString(h.Created, h.Expires, Digest(body))
	h.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(s.privKey, []byte(msg)))
	return h, nil
}
