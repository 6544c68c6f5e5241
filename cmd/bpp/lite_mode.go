package main

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/lib/pq" // Postgres Driver
	_ "modernc.org/sqlite"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/config"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/signing"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/store"
)

// openDatabase connects to DATABASE_URL, or falls back to lite mode: a
// sqlite file under DATA_DIR.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, store.Dialect, error) {
	if cfg.DatabaseURL != "" {
		dialect := store.DialectFor(cfg.DatabaseURL)
		db, err := sql.Open(dialect.DriverName(), cfg.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, "", fmt.Errorf("failed to ping database: %w", err)
		}
		logger.InfoContext(ctx, "connected to database", "dialect", dialect)
		return db, dialect, nil
	}
	return setupLiteMode(ctx, cfg.DataDir, logger)
}

func setupLiteMode(ctx context.Context, dataDir string, logger *slog.Logger) (*sql.DB, store.Dialect, error) {
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, "", fmt.Errorf("failed to create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "bpp.db")
	logger.InfoContext(ctx, "lite mode: using sqlite", "path", dbPath)

	db, err := sql.Open(store.SQLite.DriverName(), dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open sqlite: %w", err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return db, store.SQLite, nil
}

// loadSigner builds the outbound signer. Without a configured key the
// signer either refuses to sign or, when explicitly allowed outside
// production, emits mock signatures.
func loadSigner(cfg *config.Config, stdout io.Writer, logger *slog.Logger) (*signing.Signer, error) {
	var priv ed25519.PrivateKey
	if cfg.SigningPrivateKey != "" {
		k, err := signing.ParsePrivateKey(cfg.SigningPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("SIGNING_PRIVATE_KEY: %w", err)
		}
		priv = k
	}

	opts := []signing.Option{signing.WithLogger(logger)}
	if priv == nil {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("production mode requires SIGNING_PRIVATE_KEY")
		}
		if cfg.AllowMockSignatures {
			opts = append(opts, signing.WithMockSignatures())
			_, _ = fmt.Fprintf(stdout, "\n%sWARNING: no signing key configured, callbacks carry mock signatures.%s\n", ColorBold+ColorYellow, ColorReset)
			_, _ = fmt.Fprintf(stdout, "   Generate a key with: bpp keygen\n\n")
		} else {
			logger.Warn("no signing key configured; callbacks will fail to sign")
		}
	}

	s := signing.NewSigner(cfg.SubscriberID, cfg.UniqueKeyID, priv, opts...)
	if pub := cfg.SigningPublicKey; pub != "" && priv != nil {
		want, err := signing.ParsePublicKey(pub)
		if err != nil {
			return nil, fmt.Errorf("SIGNING_PUB_KEY: %w", err)
		}
		if !want.Equal(s.PublicKey()) {
			return nil, fmt.Errorf("SIGNING_PUB_KEY does not match SIGNING_PRIVATE_KEY")
		}
	}
	return s, nil
}
