package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateConfig(t *testing.T) {
	t.Parallel()

	t.Run("invalid listen address", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.ListenAddress = "rando-address" // doesn't follow the format

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidListenAddress)
	})

	t.Run("invalid backend URL", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"", "ftp://host/api", "not a url"} {
			cfg := DefaultConfig()
			cfg.Backend.BaseURL = raw

			assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidBackendURL, raw)
		}
	})

	t.Run("invalid request timeout", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Backend.RequestTimeout = "soon"

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidDuration)
	})

	t.Run("non-positive interval", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Polling.RatesBackoff = "0s"

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidDuration)
	})

	t.Run("negative rate limit", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Backend.RequestsPerSecond = -1

		assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidRateLimit)
	})

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, ValidateConfig(DefaultConfig()))
	})
}

func TestPolling_Parse(t *testing.T) {
	t.Parallel()

	intervals, err := DefaultPolling().Parse()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, intervals.Rates)
	assert.Equal(t, 5*time.Second, intervals.RatesBackoff)
	assert.Equal(t, time.Minute, intervals.Notifications)
	assert.Equal(t, 5*time.Second, intervals.Support)
	assert.Equal(t, 5*time.Second, intervals.Pix)
	assert.Equal(t, 24*time.Hour, intervals.Reference)
}

func TestConfig_Read(t *testing.T) {
	t.Parallel()

	t.Run("partial file keeps defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")

		content := `
listen_address = "0.0.0.0:9000"

[backend]
base_url = "https://ris.example.com/api"

[polling]
rates_interval = "1m"
`

		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Read(path)
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddress)
		assert.Equal(t, "https://ris.example.com/api", cfg.Backend.BaseURL)
		assert.Equal(t, DefaultRequestTimeout, cfg.Backend.RequestTimeout)
		assert.Equal(t, "1m", cfg.Polling.RatesInterval)
		assert.Equal(t, "5s", cfg.Polling.RatesBackoff)
		assert.Equal(t, DefaultReferenceURL, cfg.Reference.URL)

		assert.NoError(t, ValidateConfig(cfg))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := Read(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Error(t, err)
	})
}
