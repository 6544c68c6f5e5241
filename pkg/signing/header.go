package signing

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// Algorithm is the only supported signature algorithm.
	Algorithm = "ed25519"
	// SignedHeaders is the fixed list of signed pseudo-headers.
	SignedHeaders = "(created) (expires) digest"

	schemePrefix = "Signature "
)

// ErrMalformedHeader is returned for authorization headers that cannot be
// parsed.
var ErrMalformedHeader = errors.New("signing: malformed authorization header")

// AuthorizationHeader is a parsed or freshly produced Signature header.
type AuthorizationHeader struct {
	KeyID     string
	Algorithm string
	Created   int64
	Expires   int64
	Headers   string
	Signature string

	// Mock is set when Signature is random filler rather than a real
	// signature. Mock headers never verify.
	Mock bool
}

// String renders the header value.
func (h AuthorizationHeader) String() string {
	return fmt.Sprintf(`Signature keyId="%s",algorithm="%s",created="%d",expires="%d",headers="%s",signature="%s"`,
		h.KeyID, h.Algorithm, h.Created, h.Expires, h.Headers, h.Signature)
}

// SubscriberID returns the first segment of the keyId.
func (h AuthorizationHeader) SubscriberID() string {
	id, _, _ := strings.Cut(h.KeyID, "|")
	return id
}

// UniqueKeyID returns the middle segment of the keyId.
func (h AuthorizationHeader) UniqueKeyID() string {
	parts := strings.Split(h.KeyID, "|")
	if len(parts) != 3 {
		return ""
	}
	return parts[1]
}

// KeyID builds the "subscriber|ukid|ed25519" key identifier.
func KeyID(subscriberID, uniqueKeyID string) string {
	return subscriberID + "|" + uniqueKeyID + "|" + Algorithm
}

// Digest returns base64(BLAKE2b-512(body)).
func Digest(body []byte) string {
	sum := blake2b.Sum512(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// SigningString is the exact text that gets signed.
func SigningString(created, expires int64, digest string) string {
	return fmt.Sprintf("(created): %d\n(expires): %d\ndigest: BLAKE-512=%s", created, expires, digest)
}

// ParseAuthorizationHeader parses a Signature header value.
func ParseAuthorizationHeader(value string) (AuthorizationHeader, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), schemePrefix)
	if !ok {
		return AuthorizationHeader{}, fmt.Errorf("%w: missing Signature scheme", ErrMalformedHeader)
	}

	params := map[string]string{}
	for rest = strings.TrimSpace(rest); rest != ""; {
		key, after, ok := strings.Cut(rest, `="`)
		if !ok {
			return AuthorizationHeader{}, fmt.Errorf("%w: expected key=\"value\"", ErrMalformedHeader)
		}
		val, tail, ok := strings.Cut(after, `"`)
		if !ok {
			return AuthorizationHeader{}, fmt.Errorf("%w: unterminated value for %s", ErrMalformedHeader, key)
		}
		params[strings.TrimSpace(key)] = val
		rest = strings.TrimLeft(tail, ", ")
	}

	h := AuthorizationHeader{
		KeyID:     params["keyId"],
		Algorithm: params["algorithm"],
		Headers:   params["headers"],
		Signature: params["signature"],
	}
	var err error
	if h.Created, err = strconv.ParseInt(params["created"], 10, 64); err != nil {
		return AuthorizationHeader{}, fmt.Errorf("%w: created", ErrMalformedHeader)
	}
	if h.Expires, err = strconv.ParseInt(params["expires"], 10, 64); err != nil {
		return AuthorizationHeader{}, fmt.Errorf("%w: expires", ErrMalformedHeader)
	}
	if h.KeyID == "" || h.Signature == "" {
		return AuthorizationHeader{}, fmt.Errorf("%w: keyId and signature are required", ErrMalformedHeader)
	}
	return h, nil
}
