package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/api"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/config"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/dispatch"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/journal"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/observability"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/pricing"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/processor"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/responder"
)

const shutdownTimeout = 30 * time.Second

func runServer(stdout, stderr io.Writer) int {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintf(stderr, "%sInvalid configuration:%s\n%v\n", ColorBold+ColorRed, ColorReset, err)
		return 1
	}

	logger := newLogger(cfg.LogLevel, stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, stdout, logger); err != nil {
		logger.Error("server exited", "error", err)
		return 1
	}
	return 0
}

// serve assembles every component from cfg and blocks until ctx is done or
// the listener fails.
func serve(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version
	obsCfg.Environment = cfg.Environment
	obsCfg.OTLPEndpoint = cfg.OTelEndpoint
	obsCfg.Enabled = cfg.OTelEnabled
	telemetry, err := observability.New(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	storefront, items, err := loadProfile(cfg.ProviderProfile)
	if err != nil {
		return err
	}

	db, dialect, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sqlRepo, err := catalog.NewSQLRepository(ctx, db, dialect)
	if err != nil {
		return fmt.Errorf("catalog store: %w", err)
	}
	seeded, err := sqlRepo.SeedIfEmpty(ctx, items)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	if seeded > 0 {
		logger.InfoContext(ctx, "catalog seeded", "items", seeded)
	}

	var repo catalog.Repository = sqlRepo
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.WarnContext(ctx, "redis unreachable, catalog cache will fall through", "error", err)
		}
		cancel()
		repo = catalog.NewCachedRepository(sqlRepo, rdb, cfg.CacheTTL, logger)
	}

	sqlSink := journal.NewSQLSink(db, dialect)
	if err := sqlSink.Init(ctx); err != nil {
		return fmt.Errorf("journal store: %w", err)
	}
	sink := journal.MultiSink{journal.NewLogSink(logger), sqlSink}

	signer, err := loadSigner(cfg, stdout, logger)
	if err != nil {
		return err
	}

	dispatcher := dispatch.NewDispatcher(signer,
		dispatch.WithTimeout(cfg.DispatchTimeout),
		dispatch.WithJournal(sink),
		dispatch.WithMetrics(telemetry),
		dispatch.WithLogger(logger),
	)
	queue, closeQueue, err := startQueue(ctx, cfg, dispatcher, logger)
	if err != nil {
		return err
	}

	builder := responder.NewBuilder(responder.Identity{
		BppID:          cfg.BppID,
		BppURI:         cfg.BppURI,
		CoreVersion:    cfg.CoreVersion,
		Country:        cfg.Country,
		City:           cfg.City,
		FallbackBapID:  cfg.SubscriberID,
		FallbackBapURI: cfg.SubscriberURL,
	}, storefront)
	svc := processor.NewService(pricing.NewEngine(repo, logger), builder,
		processor.WithCallbacks(queue, cfg.CallbackActions...),
		processor.WithJournal(sink),
		processor.WithTelemetry(telemetry),
		processor.WithLogger(logger),
	)

	routerOpts := api.Options{Logger: logger, BppID: cfg.BppID, TrustProxy: cfg.TrustProxy}
	if cfg.RateLimitRPS > 0 {
		routerOpts.RateLimiter = api.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(svc, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bpp listening",
			"addr", srv.Addr,
			"bpp_id", cfg.BppID,
			"environment", cfg.Environment,
			"callbacks", cfg.CallbackActions,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := closeQueue(shutdownCtx); err != nil {
		logger.Warn("dispatch queue shutdown", "error", err)
	}
	return serveErr
}

// startQueue picks Kafka when brokers are configured and the in-process
// worker pool otherwise. The returned func stops it.
func startQueue(ctx context.Context, cfg *config.Config, d dispatch.Deliverer, logger *slog.Logger) (dispatch.Enqueuer, func(context.Context) error, error) {
	if len(cfg.KafkaBrokers) > 0 {
		kq, err := dispatch.NewKafkaQueue(dispatch.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, d, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka queue: %w", err)
		}
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan error, 1)
		go func() { done <- kq.Run(runCtx) }()
		logger.Info("dispatching callbacks through kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)

		return kq, func(shutdownCtx context.Context) error {
			cancel()
			var runErr error
			select {
			case runErr = <-done:
			case <-shutdownCtx.Done():
				runErr = shutdownCtx.Err()
			}
			return errors.Join(runErr, kq.Close())
		}, nil
	}

	mq := dispatch.NewMemoryQueue(d, cfg.QueueSize, cfg.QueueWorkers, logger)
	mq.Start(ctx)
	return mq, mq.Close, nil
}

func loadProfile(path string) (responder.Storefront, []catalog.Item, error) {
	if path == "" {
		return responder.DefaultStorefront(), catalog.DefaultItems(), nil
	}
	profile, err := config.LoadProviderProfile(path)
	if err != nil {
		return responder.Storefront{}, nil, fmt.Errorf("provider profile: %w", err)
	}
	items, err := profile.CatalogItems()
	if err != nil {
		return responder.Storefront{}, nil, fmt.Errorf("provider profile: %w", err)
	}
	return profile.Storefront(), items, nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}
