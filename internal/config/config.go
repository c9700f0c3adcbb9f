package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Provider timeout bounds.
const (
	MinProviderTimeout = time.Second
	MaxProviderTimeout = 15 * time.Second
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// ATTOM property API.
	AttomAPIKey        string
	AttomBaseURL       string
	AttomDetailBaseURL string
	ProviderTimeout    time.Duration

	RetryMaxAttempts    int
	RetryTransientDelay time.Duration

	// Resolution cache.
	CacheBackend    string
	CacheFile       string
	CacheMaxEntries int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	PublicRecords PublicRecordsConfig

	// Scoring inputs.
	MarketDataFile   string
	WeightsFile      string
	WeightsPreset    string
	ConfidencePolicy string

	ThrottleInterval      time.Duration
	MaxAddressesPerBatch  int
	BatchConfirmThreshold int
}

// PublicRecordsConfig selects the fallback sources consulted when no
// property provider matches. Each source has its own jurisdiction keywords.
type PublicRecordsConfig struct {
	TaxCollectorEnabled       bool
	TaxCollectorURL           string
	TaxCollectorJurisdictions []string

	SQLDriver        string
	SQLDSN           string
	SQLTable         string
	SQLJurisdictions []string

	ShapefilePath          string
	ShapefileJurisdictions []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	providerTimeout, err := parseDuration("PROVIDER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	if providerTimeout < MinProviderTimeout || providerTimeout > MaxProviderTimeout {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be between %s and %s", MinProviderTimeout, MaxProviderTimeout)
	}

	transientDelay, err := parseDuration("RETRY_TRANSIENT_DELAY", "1s")
	if err != nil {
		return nil, err
	}

	throttle, err := parseDuration("THROTTLE_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "address-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "distress-analyses"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "property-distress"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		AttomAPIKey:         os.Getenv("ATTOM_API_KEY"),
		AttomBaseURL:        os.Getenv("ATTOM_BASE_URL"),
		AttomDetailBaseURL:  os.Getenv("ATTOM_DETAIL_BASE_URL"),
		ProviderTimeout:     providerTimeout,
		RetryTransientDelay: transientDelay,

		CacheBackend:  strings.ToLower(sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory)),
		CacheFile:     sharedcfg.EnvOrDefault("CACHE_FILE", "address_cache.json"),
		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		PublicRecords: PublicRecordsConfig{
			TaxCollectorEnabled:       sharedcfg.EnvOrDefault("PUBLIC_RECORDS_TAX_COLLECTOR", "true") == "true",
			TaxCollectorURL:           os.Getenv("PUBLIC_RECORDS_TAX_COLLECTOR_URL"),
			TaxCollectorJurisdictions: splitList(sharedcfg.EnvOrDefault("PUBLIC_RECORDS_TAX_COLLECTOR_JURISDICTIONS", "PALM BEACH")),
			SQLDriver:                 os.Getenv("PUBLIC_RECORDS_SQL_DRIVER"),
			SQLDSN:                    os.Getenv("PUBLIC_RECORDS_SQL_DSN"),
			SQLTable:                  sharedcfg.EnvOrDefault("PUBLIC_RECORDS_SQL_TABLE", "parcels"),
			SQLJurisdictions:          splitList(os.Getenv("PUBLIC_RECORDS_SQL_JURISDICTIONS")),
			ShapefilePath:             os.Getenv("PUBLIC_RECORDS_SHAPEFILE"),
			ShapefileJurisdictions:    splitList(os.Getenv("PUBLIC_RECORDS_SHAPEFILE_JURISDICTIONS")),
		},

		MarketDataFile:   os.Getenv("MARKET_DATA_FILE"),
		WeightsFile:      os.Getenv("WEIGHTS_FILE"),
		WeightsPreset:    sharedcfg.EnvOrDefault("WEIGHTS_PRESET", "distress"),
		ConfidencePolicy: sharedcfg.EnvOrDefault("CONFIDENCE_POLICY", "linear"),
		ThrottleInterval: throttle,
	}

	for _, f := range []struct {
		key string
		def int
		dst *int
	}{
		{"RETRY_MAX_ATTEMPTS", 4, &cfg.RetryMaxAttempts},
		{"CACHE_MAX_ENTRIES", 0, &cfg.CacheMaxEntries},
		{"REDIS_DB", 0, &cfg.RedisDB},
		{"MAX_ADDRESSES_PER_BATCH", 500, &cfg.MaxAddressesPerBatch},
		{"BATCH_CONFIRM_THRESHOLD", 50, &cfg.BatchConfirmThreshold},
	} {
		n, err := parseNonNegativeInt(f.key, f.def)
		if err != nil {
			return nil, err
		}
		*f.dst = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSourceTopic == "" {
		return errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}
	switch c.CacheBackend {
	case CacheMemory, CacheFile, CacheRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.RetryMaxAttempts < 1 {
		return errors.New("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.MaxAddressesPerBatch < 1 {
		return errors.New("MAX_ADDRESSES_PER_BATCH must be at least 1")
	}
	switch c.ConfidencePolicy {
	case "linear", "fixed":
	default:
		return fmt.Errorf("invalid CONFIDENCE_POLICY %q", c.ConfidencePolicy)
	}
	pr := c.PublicRecords
	if (pr.SQLDriver == "") != (pr.SQLDSN == "") {
		return errors.New("PUBLIC_RECORDS_SQL_DRIVER and PUBLIC_RECORDS_SQL_DSN must be set together")
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
