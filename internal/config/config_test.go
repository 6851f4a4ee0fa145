package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, "Main", cfg.Kitchen.DefaultCategory)
	assert.Equal(t, "Guest", cfg.Kitchen.DefaultCustomer)
	assert.Equal(t, time.Local, cfg.Kitchen.Location)
	assert.InDelta(t, 1.0, cfg.Observability.TraceSampleRatio, 0)
}

func TestNewNormalizesDriversAndPaths(t *testing.T) {
	t.Setenv("DB_DRIVER", " SQLite3 ")
	t.Setenv("OBS_PROMETHEUS_PATH", "prom")
	t.Setenv("KITCHEN_TIMEZONE", "Asia/Manila")
	t.Setenv("KITCHEN_DEFAULT_CATEGORY", "  ")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/prom", cfg.Observability.PrometheusPath)
	assert.Equal(t, "Asia/Manila", cfg.Kitchen.Location.String())
	assert.Equal(t, "Main", cfg.Kitchen.DefaultCategory)
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"port":      {"HTTP_PORT": "0"},
		"cache":     {"CACHE_ENABLED": "true", "CACHE_DRIVER": "memcached"},
		"messaging": {"MESSAGING_ENABLED": "true", "MESSAGING_DRIVER": "nats"},
		"timezone":  {"KITCHEN_TIMEZONE": "Mars/Olympus"},
		"rabbit":    {"MESSAGING_ENABLED": "true", "MESSAGING_DRIVER": "rabbitmq", "RABBITMQ_QUEUE": ""},
		"sampling":  {"OBS_TRACE_SAMPLE_RATIO": "1.5"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestEnvHelpersFallBackOnMalformedValues(t *testing.T) {
	t.Setenv("KUSINA_TEST_INT", " 42 ")
	t.Setenv("KUSINA_TEST_BAD_INT", "forty")
	t.Setenv("KUSINA_TEST_DURATION", "90s")
	t.Setenv("KUSINA_TEST_LIST", " a, ,b ")
	t.Setenv("KUSINA_TEST_EMPTY_LIST", " , ")

	assert.Equal(t, 42, getEnvAsInt("KUSINA_TEST_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("KUSINA_TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("KUSINA_TEST_DURATION", time.Second))
	assert.True(t, getEnvAsBool("KUSINA_TEST_UNSET", true))
	assert.Equal(t, []string{"a", "b"}, getEnvAsStringSlice("KUSINA_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("KUSINA_TEST_EMPTY_LIST", []string{"x"}))
}
