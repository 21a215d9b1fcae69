package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("PORT", "")
		t.Setenv("CORS_ORIGINS", "")
		t.Setenv("MAX_REQUEST_BODY_BYTES", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8001", cfg.Port)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "./results", cfg.ResultsDir)
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
		assert.Equal(t, int64(1<<20), cfg.MaxRequestBodyBytes)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("RESULTS_DIR", "/data/results")
		t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
		t.Setenv("MAX_REQUEST_BODY_BYTES", "2048")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, "/data/results", cfg.ResultsDir)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
		assert.Equal(t, int64(2048), cfg.MaxRequestBodyBytes)
	})

	t.Run("invalid int falls back to default", func(t *testing.T) {
		t.Setenv("MAX_REQUEST_BODY_BYTES", "not-a-number")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, int64(1<<20), cfg.MaxRequestBodyBytes)
	})
}
