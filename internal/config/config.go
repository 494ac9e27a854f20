// Package config loads service settings from the environment. A local .env
// file is honored when present so development setups match the deployed
// variable names.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
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

	// Postgres sink. Empty DSN disables the database loader.
	PostgresDSN string

	// NASA POWER climate data API.
	PowerBaseURL string
	PowerTimeout time.Duration

	// IMERG satellite coverage via the NASA CMR search API.
	EarthdataToken string
	IMERGEnabled   bool
	IMERGTimeout   time.Duration
	IMERGCacheSize int

	// Path of the trained model blob; metadata sidecar sits next to it.
	ModelPath string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	powerTimeout, err := parseDuration("POWER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	imergTimeout, err := parseDuration("IMERG_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	batchSize, err := parseInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("IMERG_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	earthdataToken := os.Getenv("EARTHDATA_TOKEN")
	imergEnabled := earthdataToken != ""
	if v := os.Getenv("IMERG_ENABLED"); v != "" {
		imergEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-climate-daily"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "climate-daily"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "floodcast-ingest"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		PowerBaseURL: envOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal/daily/point"),
		PowerTimeout: powerTimeout,

		EarthdataToken: earthdataToken,
		IMERGEnabled:   imergEnabled,
		IMERGTimeout:   imergTimeout,
		IMERGCacheSize: cacheSize,

		ModelPath: envOrDefault("MODEL_PATH", "flood_model.bin"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.New("BATCH_SIZE must be positive")
	}
	if cfg.IMERGEnabled && cfg.EarthdataToken == "" {
		return nil, errors.New("IMERG_ENABLED is true but EARTHDATA_TOKEN is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	v := envOrDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
