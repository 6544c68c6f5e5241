package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/config"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

var envKeys = []string{
	"ENVIRONMENT", "PORT", "LOG_LEVEL", "BASE_URL", "SUBSCRIBER_ID", "UNIQUE_KEY_ID", "SUBSCRIBER_URL",
	"BPP_ID", "BPP_URI", "DOMAIN", "COUNTRY", "CITY", "TYPE", "CORE_VERSION", "SIGNING_PRIVATE_KEY",
	"SIGNING_PUB_KEY", "ALLOW_MOCK_SIGNATURES", "ONDC_LOOKUP_URL", "DATABASE_URL", "DATA_DIR", "REDIS_URL",
	"CATALOG_CACHE_TTL", "CALLBACK_ACTIONS", "DISPATCH_TIMEOUT", "DISPATCH_QUEUE_SIZE", "DISPATCH_WORKERS",
	"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_GROUP_ID", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TRUST_PROXY", "PROVIDER_PROFILE",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

// The service must boot in development with no environment at all.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, config.EnvDevelopment, cfg.Environment)
	assert.Equal(t, "neo-server.rozana.in", cfg.SubscriberID)
	assert.Equal(t, cfg.SubscriberID, cfg.BppID)
	assert.Equal(t, "http://localhost:8080/ondc", cfg.BppURI)
	assert.Equal(t, "ONDC:RET10", cfg.Domain)
	assert.Equal(t, "IND", cfg.Country)
	assert.Equal(t, "std:080", cfg.City)
	assert.Equal(t, "1.2.0", cfg.CoreVersion)
	assert.Equal(t, "https://preprod.registry.ondc.org", cfg.LookupURL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, []protocol.Action{protocol.ActionSearch}, cfg.CallbackActions)
	assert.Equal(t, 30*time.Second, cfg.DispatchTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.AllowMockSignatures)
	assert.False(t, cfg.TrustProxy, "forwarded headers are ignored unless enabled")

	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://bpp.example.com/")
	t.Setenv("BPP_ID", "bpp.example.com")
	t.Setenv("CALLBACK_ACTIONS", "search, Select,init")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DISPATCH_TIMEOUT", "5s")
	t.Setenv("ALLOW_MOCK_SIGNATURES", "true")
	t.Setenv("DISPATCH_WORKERS", "not-a-number")
	t.Setenv("TRUST_PROXY", "true")

	cfg := config.Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://bpp.example.com", cfg.BaseURL)
	assert.Equal(t, "https://bpp.example.com/ondc", cfg.BppURI)
	assert.Equal(t, "bpp.example.com", cfg.BppID)
	assert.Equal(t, []protocol.Action{protocol.ActionSearch, protocol.ActionSelect, protocol.ActionInit}, cfg.CallbackActions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.DispatchTimeout)
	assert.True(t, cfg.AllowMockSignatures)
	assert.Equal(t, 4, cfg.QueueWorkers, "unparseable values fall back to defaults")
	assert.True(t, cfg.TrustProxy)
}

func TestLoad_CallbackActions(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALLBACK_ACTIONS", " Track ,confirm,status,bogus")

	cfg := config.Load()

	assert.Equal(t, []protocol.Action{protocol.ActionTrack, protocol.ActionStatus}, cfg.CallbackActions)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `CALLBACK_ACTIONS: unknown action "confirm"`)
	assert.Contains(t, err.Error(), `CALLBACK_ACTIONS: unknown action "bogus"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad core version", map[string]string{"CORE_VERSION": "1.2"}, "CORE_VERSION"},
		{"unknown environment", map[string]string{"ENVIRONMENT": "staging"}, "ENVIRONMENT"},
		{"callback action", map[string]string{"CALLBACK_ACTIONS": "on_search"}, "CALLBACK_ACTIONS"},
		{"unknown callback action", map[string]string{"CALLBACK_ACTIONS": "confirm"}, "CALLBACK_ACTIONS"},
		{"production mock signatures", map[string]string{
			"ENVIRONMENT": "production", "ALLOW_MOCK_SIGNATURES": "true", "SIGNING_PRIVATE_KEY": "x",
		}, "ALLOW_MOCK_SIGNATURES"},
		{"production without key", map[string]string{"ENVIRONMENT": "production"}, "SIGNING_PRIVATE_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := config.Load().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	clearEnv(t)
	cfg := config.Load()
	cfg.SubscriberID = ""
	cfg.City = " "
	cfg.CoreVersion = "v1"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUBSCRIBER_ID is required")
	assert.Contains(t, err.Error(), "CITY is required")
	assert.Contains(t, err.Error(), "CORE_VERSION")
}

func TestLoadProviderProfile_Sample(t *testing.T) {
	p, err := config.LoadProviderProfile(filepath.Join("..", "..", "configs", "provider_profile.yaml"))
	require.NoError(t, err)

	items, err := p.CatalogItems()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "item_001", items[0].ID)
	assert.Equal(t, "120.00", items[0].Price.StringFixed(2))
	assert.Equal(t, "INR", items[0].Currency)
	assert.Equal(t, []string{"Delhi", "Mumbai", "Bangalore"}, items[0].Fulfillment.Locations)
	require.NotNil(t, items[0].ReturnPolicy)
	assert.Equal(t, "7 days", items[0].ReturnPolicy.ReturnWindow)
	require.NotNil(t, items[2].Seller)
	assert.Equal(t, 2100, items[2].Seller.Reviews)

	sf := p.Storefront()
	assert.Equal(t, "provider_001", sf.ProviderID)
	assert.Equal(t, "Rozana Store", sf.ProviderName.Name)
	assert.Equal(t, "Connaught Place", sf.Location.Address.Locality)
	assert.Equal(t, "https://track.rozana.in/orders/", sf.TrackingBaseURL)
}

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadProviderProfile_Partial(t *testing.T) {
	p, err := config.LoadProviderProfile(writeProfile(t, "provider:\n  id: p9\n  name: Corner Shop\n"))
	require.NoError(t, err)

	sf := p.Storefront()
	assert.Equal(t, "p9", sf.ProviderID)
	assert.Equal(t, "Corner Shop", sf.ProviderName.Name)
	assert.Equal(t, "fulfillment_001", sf.FulfillmentID, "unset fields keep defaults")

	items, err := p.CatalogItems()
	require.NoError(t, err)
	assert.Len(t, items, 3, "no items means the built-in catalog")
}

func TestLoadProviderProfile_Errors(t *testing.T) {
	_, err := config.LoadProviderProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.LoadProviderProfile(writeProfile(t, "items: [\n"))
	assert.ErrorContains(t, err, "parse provider profile")

	_, err = config.LoadProviderProfile(writeProfile(t, "items:\n  - id: a\n    price: cheap\n"))
	assert.ErrorContains(t, err, "price")

	_, err = config.LoadProviderProfile(writeProfile(t, "items:\n  - id: a\n    price: 1\n  - id: a\n    price: 2\n"))
	assert.ErrorContains(t, err, "duplicate id")
}
