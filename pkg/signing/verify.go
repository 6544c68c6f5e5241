package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidSignature = errors.New("signing: invalid signature")
	ErrExpired          = errors.New("signing: header expired")
	ErrNotYetValid      = errors.New("signing: header created in the future")
	ErrUnsupported      = errors.New("signing: unsupported algorithm or header list")
)

// clockSkew tolerates small differences between participant clocks.
const clockSkew = 5 * time.Second

// Verify checks an authorization header value against body and pub at
// time now.
func Verify(header string, body []byte, pub ed25519.PublicKey, now time.Time) error {
	h, err := ParseAuthorizationHeader(header)
	if err != nil {
		return err
	}
	return VerifyHeader(h, body, pub, now)
}

// VerifyHeader is Verify for an already parsed header.
func VerifyHeader(h AuthorizationHeader, body []byte, pub ed25519.PublicKey, now time.Time) error {
	if h.Algorithm != Algorithm || h.Headers != SignedHeaders {
		return ErrUnsupported
	}
	if h.Expires <= h.Created {
		return fmt.Errorf("%w: expires must be after created", ErrInvalidSignature)
	}
	ts := now.Unix()
	if h.Created > ts+int64(clockSkew/time.Second) {
		return ErrNotYetValid
	}
	if ts >= h.Expires {
		return ErrExpired
	}
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad public key size", ErrInvalidSignature)
	}

	sig, err := base64.StdEncoding.DecodeString(h.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	msg := SigningString(h.Created, h.Expires, Digest(body))
	if !ed25519.Verify(pub, []byte(msg), sig) {
		return ErrInvalidSignature
	}
	return nil
}
