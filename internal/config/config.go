package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// defaultAreas is the fixed enumeration of forecast area codes of
// interest. It seeds the AREAS variable; the reconstruction logic itself
// never depends on it.
const defaultAreas = "130000=東京都,140000=神奈川県,120000=千葉県,110000=埼玉県," +
	"270000=大阪府,230000=愛知県,010000=北海道,040000=宮城県,460000=鹿児島県,470000=沖縄県"

// Area pairs a JMA area code with its display name.
type Area struct {
	Code string
	Name string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	// e-Stat statistics source. The stats pipeline is enabled only when
	// an application ID is configured.
	EstatAppID        string
	EstatBaseURL      string
	EstatStatsDataID  string
	EstatCategoryCode string

	// JMA forecast source.
	JMABaseURL string
	Areas      []Area

	// Sinks. CSV output is always on; SQLite and Kafka are enabled by
	// setting their respective path/brokers.
	OutputDir      string
	SQLitePath     string
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	FetchInterval   time.Duration
	FetchTimeout    time.Duration
	RunOnce         bool
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	fetchInterval, err := parseDurationEnv("FETCH_INTERVAL", "6h")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDurationEnv("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	areas, err := parseAreas(envOrDefault("AREAS", defaultAreas))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		EstatAppID:        os.Getenv("ESTAT_APP_ID"),
		EstatBaseURL:      envOrDefault("ESTAT_BASE_URL", "https://api.e-stat.go.jp/rest/3.0/app/json/getStatsData"),
		EstatStatsDataID:  envOrDefault("ESTAT_STATS_DATA_ID", "0003348423"),
		EstatCategoryCode: envOrDefault("ESTAT_CATEGORY_CODE", "01000"),

		JMABaseURL: envOrDefault("JMA_BASE_URL", "https://www.jma.go.jp/bosai/forecast/data/forecast"),
		Areas:      areas,

		OutputDir:      envOrDefault("OUTPUT_DIR", "data"),
		SQLitePath:     os.Getenv("SQLITE_PATH"),
		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "normalized-opendata"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		FetchInterval:   fetchInterval,
		FetchTimeout:    fetchTimeout,
		RunOnce:         os.Getenv("RUN_ONCE") == "true",
		ShutdownTimeout: shutdownTimeout,
	}

	if len(cfg.Areas) == 0 {
		return nil, errors.New("AREAS must list at least one area")
	}

	return cfg, nil
}

// EstatEnabled reports whether the stats pipeline should run.
func (c *Config) EstatEnabled() bool { return c.EstatAppID != "" }

// KafkaEnabled reports whether the Kafka sink should be wired.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// SQLiteEnabled reports whether the SQLite sink should be wired.
func (c *Config) SQLiteEnabled() bool { return c.SQLitePath != "" }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// parseAreas decodes a "code=name,code=name" list, preserving order.
func parseAreas(s string) ([]Area, error) {
	var areas []Area
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, name, ok := strings.Cut(pair, "=")
		if !ok || code == "" || name == "" {
			return nil, fmt.Errorf("invalid AREAS entry %q, want code=name", pair)
		}
		areas = append(areas, Area{Code: code, Name: name})
	}
	return areas, nil
}
