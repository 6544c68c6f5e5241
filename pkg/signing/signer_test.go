package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Unix(1_700_000_000, 0)

func testSigner(t *testing.T) (*Signer, ed25519.PublicKey) {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	s := NewSigner("bpp.example.com", "ukid-1", priv, WithClock(func() time.Time { return fixedTime }))
	return s, priv.Public().(ed25519.PublicKey)
}

func TestSigner_SignAndVerify(t *testing.T) {
	s, pub := testSigner(t)
	body := []byte(`{"context":{"action":"on_search"},"message":{"ack":{"status":"ACK"}}}`)

	h, err := s.Sign(body)
	require.NoError(t, err)
	assert.False(t, h.Mock)
	assert.Equal(t, "bpp.example.com|ukid-1|ed25519", h.KeyID)
	assert.Equal(t, fixedTime.Unix(), h.Created)
	assert.Equal(t, fixedTime.Unix()+3600, h.Expires)
	assert.Greater(t, h.Expires, h.Created)

	if err := Verify(h.String(), body, pub, fixedTime.Add(time.Minute)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestSigner_TamperedBodyFails(t *testing.T) {
	s, pub := testSigner(t)
	body := []byte(`{"amount":"555.60"}`)
	h, err := s.Sign(body)
	require.NoError(t, err)

	tampered := []byte(`{"amount":"555.61"}`)
	err = Verify(h.String(), tampered, pub, fixedTime)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSigner_ExpiryWindow(t *testing.T) {
	s, pub := testSigner(t)
	body := []byte(`{}`)
	h, err := s.Sign(body)
	require.NoError(t, err)

	assert.ErrorIs(t, Verify(h.String(), body, pub, fixedTime.Add(Validity)), ErrExpired)
	assert.ErrorIs(t, Verify(h.String(), body, pub, fixedTime.Add(-time.Minute)), ErrNotYetValid)
}

func TestSigner_HeaderFormat(t *testing.T) {
	s, _ := testSigner(t)
	h, err := s.Sign([]byte("x"))
	require.NoError(t, err)

	want := `Signature keyId="bpp.example.com|ukid-1|ed25519",algorithm="ed25519",created="1700000000",expires="1700003600",headers="(created) (expires) digest",signature="` + h.Signature + `"`
	assert.Equal(t, want, h.String())
}

func TestSigner_SignatureCoversDocumentedString(t *testing.T) {
	s, pub := testSigner(t)
	body := []byte(`hello`)
	h, err := s.Sign(body)
	require.NoError(t, err)

	msg := "(created): 1700000000\n(expires): 1700003600\ndigest: BLAKE-512=" + Digest(body)
	sig, err := base64.StdEncoding.DecodeString(h.Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, []byte(msg), sig))
}

func TestDigest_IsBlake2b512(t *testing.T) {
	d, err := base64.StdEncoding.DecodeString(Digest([]byte("abc")))
	require.NoError(t, err)
	assert.Len(t, d, 64)
	assert.NotEqual(t, Digest([]byte("abc")), Digest([]byte("abd")))
}

func TestSigner_NoKey(t *testing.T) {
	s := NewSigner("bpp", "k", nil)
	_, err := s.Sign([]byte("{}"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSigningKey)

	var se *SigningError
	assert.True(t, errors.As(err, &se))
}

func TestSigner_MockIsFlaggedAndNeverVerifies(t *testing.T) {
	s := NewSigner("bpp", "k", nil, WithMockSignatures(), WithClock(func() time.Time { return fixedTime }))
	h, err := s.Sign([]byte("{}"))
	require.NoError(t, err)
	assert.True(t, h.Mock)
	assert.NotEmpty(t, h.Signature)

	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	pub, err := ParsePublicKey(kp.PublicKey)
	require.NoError(t, err)
	assert.ErrorIs(t, Verify(h.String(), []byte("{}"), pub, fixedTime), ErrInvalidSignature)
}

func TestParseAuthorizationHeader(t *testing.T) {
	s, _ := testSigner(t)
	h, err := s.Sign([]byte("body"))
	require.NoError(t, err)

	parsed, err := ParseAuthorizationHeader(h.String())
	require.NoError(t, err)
	assert.Equal(t, h.KeyID, parsed.KeyID)
	assert.Equal(t, h.Signature, parsed.Signature)
	assert.Equal(t, h.Created, parsed.Created)
	assert.Equal(t, "bpp.example.com", parsed.SubscriberID())
	assert.Equal(t, "ukid-1", parsed.UniqueKeyID())

	for _, bad := range []string{
		"",
		"Bearer abc",
		`Signature keyId="a"`,
		`Signature keyId="a|b|ed25519",created="x",expires="1",signature="s"`,
		`Signature keyId="a|b|ed25519,created="1`,
	} {
		_, err := ParseAuthorizationHeader(bad)
		if !errors.Is(err, ErrMalformedHeader) {
			t.Errorf("%q: expected ErrMalformedHeader, got %v", bad, err)
		}
	}
}

func TestParseKeys(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	priv, err := ParsePrivateKey(kp.PrivateKey)
	require.NoError(t, err)
	pub, err := ParsePublicKey(kp.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, pub, priv.Public().(ed25519.PublicKey))

	seedOnly := base64.StdEncoding.EncodeToString(priv.Seed())
	fromSeed, err := ParsePrivateKey(seedOnly)
	require.NoError(t, err)
	assert.Equal(t, priv, fromSeed)

	_, err = ParsePrivateKey("not base64!")
	assert.Error(t, err)
	_, err = ParsePrivateKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.True(t, strings.Contains(err.Error(), "size"))
	_, err = ParsePublicKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
}
