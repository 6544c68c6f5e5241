package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/config"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/signing"
)

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

func runKeygenCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("keygen", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	jsonOutput := cmd.Bool("json", false, "Output the key pair as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	kp, err := signing.GenerateKeyPair()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]string{
			"signing_private_key": kp.PrivateKey,
			"signing_public_key":  kp.PublicKey,
		})
		return 0
	}
	_, _ = fmt.Fprintf(stdout, "SIGNING_PRIVATE_KEY=%s\n", kp.PrivateKey)
	_, _ = fmt.Fprintf(stdout, "SIGNING_PUB_KEY=%s\n", kp.PublicKey)
	return 0
}

func runSignCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	cmd := flag.NewFlagSet("sign", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var (
		bodyPath     string
		key          string
		subscriberID string
		ukID         string
		at           int64
	)
	cmd.StringVar(&bodyPath, "body", "-", "File holding the exact request body ('-' for stdin)")
	cmd.StringVar(&key, "key", cfg.SigningPrivateKey, "Base64 Ed25519 private key (default $SIGNING_PRIVATE_KEY)")
	cmd.StringVar(&subscriberID, "subscriber", cfg.SubscriberID, "Subscriber id placed in keyId")
	cmd.StringVar(&ukID, "ukid", cfg.UniqueKeyID, "Unique key id placed in keyId")
	cmd.Int64Var(&at, "created", 0, "Unix creation time (default now)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if key == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --key or SIGNING_PRIVATE_KEY is required")
		return 2
	}

	priv, err := signing.ParsePrivateKey(key)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	body, err := readBody(bodyPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	created := time.Now()
	if at > 0 {
		created = time.Unix(at, 0)
	}
	h, err := signing.NewSigner(subscriberID, ukID, priv).SignAt(body, created)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, h.String())
	return 0
}

// runVerifyCmd exits 0 when the header verifies, 1 when it does not and 2
// on usage errors.
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var (
		header   string
		bodyPath string
		pub      string
		at       int64
	)
	cmd.StringVar(&header, "header", "", "Authorization header value (REQUIRED)")
	cmd.StringVar(&bodyPath, "body", "-", "File holding the exact request body ('-' for stdin)")
	cmd.StringVar(&pub, "pub", cfg.SigningPublicKey, "Base64 Ed25519 public key (default $SIGNING_PUB_KEY)")
	cmd.Int64Var(&at, "at", 0, "Unix time to verify at (default now)")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if header == "" || pub == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --header and --pub are required")
		return 2
	}

	pubKey, err := signing.ParsePublicKey(pub)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	body, err := readBody(bodyPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	now := time.Now()
	if at > 0 {
		now = time.Unix(at, 0)
	}
	if err := signing.Verify(header, body, pubKey, now); err != nil {
		_, _ = fmt.Fprintf(stdout, "%sINVALID%s %v\n", ColorBold+ColorRed, ColorReset, err)
		return 1
	}
	h, _ := signing.ParseAuthorizationHeader(header)
	_, _ = fmt.Fprintf(stdout, "%sVALID%s subscriber=%s ukId=%s\n", ColorBold+ColorGreen, ColorReset, h.SubscriberID(), h.UniqueKeyID())
	return 0
}

func readBody(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}
