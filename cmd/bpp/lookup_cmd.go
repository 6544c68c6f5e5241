package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/config"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/registry"
)

// runLookupCmd performs one signed registry lookup. Unset flags fall back
// to the participant identity in the environment.
func runLookupCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	cmd := flag.NewFlagSet("lookup", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var (
		override   registry.Query
		baseURL    string
		timeout    time.Duration
		jsonOutput bool
	)
	cmd.StringVar(&override.SubscriberID, "subscriber", "", "Subscriber id to look up")
	cmd.StringVar(&override.Domain, "domain", "", "Network domain, e.g. ONDC:RET10")
	cmd.StringVar(&override.UkID, "ukid", "", "Unique key id")
	cmd.StringVar(&override.Country, "country", "", "Country code")
	cmd.StringVar(&override.City, "city", "", "City code")
	cmd.StringVar(&override.Type, "type", "", "Participant type (BAP, BPP, BG)")
	cmd.StringVar(&baseURL, "url", cfg.LookupURL, "Registry base URL")
	cmd.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	cmd.BoolVar(&jsonOutput, "json", false, "Print the raw registry response")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	signer, err := loadSigner(cfg, stderr, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	defaults := registry.Query{
		SubscriberID: cfg.SubscriberID,
		Domain:       cfg.Domain,
		UkID:         cfg.UniqueKeyID,
		Country:      cfg.Country,
		City:         cfg.City,
		Type:         cfg.Type,
	}
	client := registry.NewClient(baseURL, defaults, signer, logger)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res, err := client.Lookup(ctx, override)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Lookup failed: %v\n", err)
		return 1
	}

	if jsonOutput {
		_, _ = stdout.Write(res.Raw)
		_, _ = fmt.Fprintln(stdout)
	} else {
		printLookup(stdout, res)
	}
	if !res.OK() {
		return 1
	}
	return 0
}

func printLookup(w io.Writer, res registry.Result) {
	status := ColorGreen
	if !res.OK() {
		status = ColorRed
	}
	_, _ = fmt.Fprintf(w, "%sHTTP %d%s  %s %s\n", ColorBold+status, res.HTTPStatus, ColorReset,
		res.Query.SubscriberID, res.Query.Domain)
	if len(res.Subscribers) == 0 {
		_, _ = fmt.Fprintln(w, "  no entries")
		return
	}
	for _, s := range res.Subscribers {
		mark := "ok"
		if err := registry.ValidateEntry(s); err != nil {
			mark = err.Error()
		}
		_, _ = fmt.Fprintf(w, "  %s%-32s%s ukId=%s url=%s status=%s (%s)\n",
			ColorCyan, s.SubscriberID, ColorReset, s.UkID, s.SubscriberURL, s.Status, mark)
	}
	_, _ = fmt.Fprintf(w, "  signing_public_key: %q\n", res.Subscribers[0].SigningPublicKey)
}
