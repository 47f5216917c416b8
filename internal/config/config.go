package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Default Open-Meteo endpoints.
const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	DefaultArchiveURL   = "https://archive-api.open-meteo.com/v1/archive"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Open-Meteo upstreams.
	GeocodingURL    string
	ArchiveURL      string
	UpstreamTimeout time.Duration
	UpstreamRate    float64

	HistoryDays       int
	ReportAccessToken string

	// Optional report publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string
}

// LoadDotEnv seeds the environment from a .env file (or the given files).
// Variables already set win, and a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("UPSTREAM_TIMEOUT", "10s"))
	if err != nil || upstreamTimeout <= 0 {
		return nil, errors.New("invalid UPSTREAM_TIMEOUT")
	}

	upstreamRate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("UPSTREAM_RATE", "5"), 64)
	if err != nil || upstreamRate <= 0 {
		return nil, errors.New("invalid UPSTREAM_RATE")
	}

	historyDays, err := strconv.Atoi(sharedcfg.EnvOrDefault("HISTORY_WINDOW_DAYS", "3650"))
	if err != nil || historyDays < 0 {
		return nil, errors.New("invalid HISTORY_WINDOW_DAYS")
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid KAFKA_ENABLED")
		}
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocodingURL:    sharedcfg.EnvOrDefault("GEOCODING_URL", DefaultGeocodingURL),
		ArchiveURL:      sharedcfg.EnvOrDefault("ARCHIVE_URL", DefaultArchiveURL),
		UpstreamTimeout: upstreamTimeout,
		UpstreamRate:    upstreamRate,

		HistoryDays:       historyDays,
		ReportAccessToken: os.Getenv("REPORT_ACCESS_TOKEN"),

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "weather-verification-reports"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required")
	}

	return cfg, nil
}
