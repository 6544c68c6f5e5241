// Package config builds the process configuration once from the
// environment. Components receive the values they need through their
// constructors and never read the environment themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// Environment names accepted in ENVIRONMENT.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds server configuration.
type Config struct {
	Environment string
	Port        string
	LogLevel    string

	// Participant identity.
	SubscriberID  string
	UniqueKeyID   string
	SubscriberURL string
	BaseURL       string
	BppID         string
	BppURI        string
	Domain        string
	Country       string
	City          string
	Type          string
	CoreVersion   string

	// Signing material, base64 encoded.
	SigningPrivateKey   string
	SigningPublicKey    string
	AllowMockSignatures bool

	LookupURL string

	// Storage. An empty DatabaseURL selects lite mode (sqlite under DataDir).
	DatabaseURL string
	DataDir     string
	RedisURL    string
	CacheTTL    time.Duration

	// Callback dispatch.
	CallbackActions []protocol.Action
	DispatchTimeout time.Duration
	QueueSize       int
	QueueWorkers    int
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaGroupID    string

	// Ingress. TrustProxy takes the client address from X-Forwarded-For
	// and X-Real-IP; enable it only behind a proxy that overwrites them.
	RateLimitRPS   float64
	RateLimitBurst int
	TrustProxy     bool

	ProviderProfile string

	OTelEnabled  bool
	OTelEndpoint string

	// actionsErr records CALLBACK_ACTIONS entries Load could not parse.
	actionsErr error
}

// Load loads configuration from environment variables.
func Load() *Config {
	baseURL := strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/")
	subscriberID := getenv("SUBSCRIBER_ID", "neo-server.rozana.in")
	actions, actionsErr := parseActions(getenv("CALLBACK_ACTIONS", "search"))

	return &Config{
		Environment: strings.ToLower(getenv("ENVIRONMENT", EnvDevelopment)),
		Port:        getenv("PORT", "8080"),
		LogLevel:    getenv("LOG_LEVEL", "INFO"),

		SubscriberID:  subscriberID,
		UniqueKeyID:   getenv("UNIQUE_KEY_ID", "3bd6f47a-d2ea-4210-a4ad-2a99dd66585b"),
		SubscriberURL: getenv("SUBSCRIBER_URL", baseURL+"/bapl"),
		BaseURL:       baseURL,
		BppID:         getenv("BPP_ID", subscriberID),
		BppURI:        getenv("BPP_URI", baseURL+"/ondc"),
		Domain:        getenv("DOMAIN", "ONDC:RET10"),
		Country:       getenv("COUNTRY", "IND"),
		City:          getenv("CITY", "std:080"),
		Type:          getenv("TYPE", "BPP"),
		CoreVersion:   getenv("CORE_VERSION", "1.2.0"),

		SigningPrivateKey:   os.Getenv("SIGNING_PRIVATE_KEY"),
		SigningPublicKey:    os.Getenv("SIGNING_PUB_KEY"),
		AllowMockSignatures: getbool("ALLOW_MOCK_SIGNATURES", false),

		LookupURL: strings.TrimRight(getenv("ONDC_LOOKUP_URL", "https://preprod.registry.ondc.org"), "/"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     getenv("DATA_DIR", "data"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CacheTTL:    getduration("CATALOG_CACHE_TTL", 5*time.Minute),

		CallbackActions: actions,
		DispatchTimeout: getduration("DISPATCH_TIMEOUT", 30*time.Second),
		QueueSize:       getint("DISPATCH_QUEUE_SIZE", 256),
		QueueWorkers:    getint("DISPATCH_WORKERS", 4),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getenv("KAFKA_TOPIC", "bpp.callbacks"),
		KafkaGroupID:    getenv("KAFKA_GROUP_ID", "ondc-bpp-dispatch"),

		RateLimitRPS:   getfloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getint("RATE_LIMIT_BURST", 100),
		TrustProxy:     getbool("TRUST_PROXY", false),

		ProviderProfile: os.Getenv("PROVIDER_PROFILE"),

		OTelEnabled:  getbool("OTEL_ENABLED", false),
		OTelEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		actionsErr: actionsErr,
	}
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// Validate checks that the configuration is usable. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"SUBSCRIBER_ID": c.SubscriberID,
		"UNIQUE_KEY_ID": c.UniqueKeyID,
		"BPP_URI":       c.BppURI,
		"DOMAIN":        c.Domain,
		"COUNTRY":       c.Country,
		"CITY":          c.City,
	}
	for _, name := range []string{"SUBSCRIBER_ID", "UNIQUE_KEY_ID", "BPP_URI", "DOMAIN", "COUNTRY", "CITY"} {
		if strings.TrimSpace(required[name]) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	if _, err := semver.StrictNewVersion(c.CoreVersion); err != nil {
		errs = append(errs, fmt.Errorf("CORE_VERSION %q is not a semantic version: %w", c.CoreVersion, err))
	}

	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENVIRONMENT must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment))
	}

	if c.IsProduction() {
		if c.AllowMockSignatures {
			errs = append(errs, errors.New("ALLOW_MOCK_SIGNATURES cannot be enabled in production"))
		}
		if c.SigningPrivateKey == "" {
			errs = append(errs, errors.New("SIGNING_PRIVATE_KEY is required in production"))
		}
	}

	if c.actionsErr != nil {
		errs = append(errs, c.actionsErr)
	}
	for _, a := range c.CallbackActions {
		if !a.Valid() || a.IsCallback() {
			errs = append(errs, fmt.Errorf("CALLBACK_ACTIONS: %q is not a request action", a))
		}
	}

	if c.QueueSize <= 0 || c.QueueWorkers <= 0 {
		errs = append(errs, errors.New("DISPATCH_QUEUE_SIZE and DISPATCH_WORKERS must be positive"))
	}
	if c.DispatchTimeout <= 0 {
		errs = append(errs, errors.New("DISPATCH_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getint(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getfloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getduration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseActions(s string) ([]protocol.Action, error) {
	var (
		out  []protocol.Action
		errs []error
	)
	for _, name := range splitList(s) {
		a, err := protocol.ParseAction(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("CALLBACK_ACTIONS: %w", err))
			continue
		}
		out = append(out, a)
	}
	return out, errors.Join(errs...)
}
