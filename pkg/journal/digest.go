package journal

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gowebpki/jcs"
)

// BodyDigest returns the hex SHA-256 of the RFC 8785 canonical form of a
// JSON body, so semantically equal bodies journal identically. Non-JSON
// bodies are hashed as-is.
func BodyDigest(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	canonical, err := jcs.Transform(body)
	if err != nil {
		canonical = body
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
