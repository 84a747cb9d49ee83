package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.EstatAppID)
	assert.False(t, cfg.EstatEnabled())
	assert.Equal(t, "https://api.e-stat.go.jp/rest/3.0/app/json/getStatsData", cfg.EstatBaseURL)
	assert.Equal(t, "0003348423", cfg.EstatStatsDataID)
	assert.Equal(t, "01000", cfg.EstatCategoryCode)
	assert.Equal(t, "https://www.jma.go.jp/bosai/forecast/data/forecast", cfg.JMABaseURL)

	require.Len(t, cfg.Areas, 10)
	assert.Equal(t, Area{Code: "130000", Name: "東京都"}, cfg.Areas[0])
	assert.Equal(t, Area{Code: "470000", Name: "沖縄県"}, cfg.Areas[9])

	assert.Equal(t, "data", cfg.OutputDir)
	assert.False(t, cfg.SQLiteEnabled())
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "normalized-opendata", cfg.KafkaSinkTopic)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 6*time.Hour, cfg.FetchInterval)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("ESTAT_APP_ID", "test-app-id")
	t.Setenv("ESTAT_STATS_DATA_ID", "0000000001")
	t.Setenv("AREAS", "130000=Tokyo, 270000=Osaka")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("SQLITE_PATH", "/tmp/opendata.db")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("FETCH_INTERVAL", "1h")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.EstatEnabled())
	assert.Equal(t, "0000000001", cfg.EstatStatsDataID)
	assert.Equal(t, []Area{{Code: "130000", Name: "Tokyo"}, {Code: "270000", Name: "Osaka"}}, cfg.Areas)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.True(t, cfg.SQLiteEnabled())
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.FetchInterval)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad interval", "FETCH_INTERVAL", "soon"},
		{"zero interval", "FETCH_INTERVAL", "0s"},
		{"bad timeout", "FETCH_TIMEOUT", "-1s"},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "never"},
		{"areas entry without name", "AREAS", "130000"},
		{"areas entry empty code", "AREAS", "=Tokyo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
