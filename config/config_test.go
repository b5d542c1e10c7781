package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/newsharvester/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "data/news.db", config.DBPath)
	assert.Equal(t, DelayRange{Min: time.Second, Max: 20 * time.Second}, config.Delay)
	assert.Equal(t, 15*time.Second, config.FetchTimeout)
	assert.Equal(t, 1, config.FetchWorkers)
	assert.Equal(t, 7*24*time.Hour, config.InitialLookback)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, "", config.MemcacheAddr)
	assert.Len(t, config.Sources, 6)
	assert.Equal(t, DefaultBaseURLs["kontan"], config.Sources["kontan"].BaseURL)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("DELAY_MIN_SECONDS", "0.5")
	t.Setenv("DELAY_MAX_SECONDS", "2")
	t.Setenv("FETCH_WORKERS", "3")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("CNBC_URL", "https://example.com/rss")

	config = LoadConfig()
	assert.Equal(t, "/tmp/other.db", config.DBPath)
	assert.Equal(t, DelayRange{Min: 500 * time.Millisecond, Max: 2 * time.Second}, config.Delay)
	assert.Equal(t, 3, config.FetchWorkers)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, "https://example.com/rss", config.Sources["cnbc"].BaseURL)
	assert.Equal(t, config.Delay, config.Sources["cnbc"].Delay)
}

func TestValidateRejectsInvertedDelay(t *testing.T) {
	config := LoadConfig()
	config.Delay = DelayRange{Min: 5 * time.Second, Max: time.Second}

	err := config.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestValidateRejectsEmptyBaseURL(t *testing.T) {
	config := LoadConfig()
	config.Sources["bisnis"] = SourceConfig{Enabled: true, Delay: config.Delay}
	assert.True(t, errors.IsConfiguration(config.Validate()))

	// disabled sources are not checked
	config.Sources["bisnis"] = SourceConfig{Enabled: false}
	assert.NoError(t, config.Validate())
}

func TestLoadSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `
delay_request_range: [2, 4]
sources:
  iqplus:
    delay_request_range: [1, 10]
  pasardana:
    enabled: false
  cnbc:
    base_url: https://example.com/market/rss
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config := LoadConfig()
	require.NoError(t, config.LoadSourcesFile(path))

	assert.Equal(t, DelayRange{Min: 2 * time.Second, Max: 4 * time.Second}, config.Delay)
	assert.Equal(t, config.Delay, config.Sources["kontan"].Delay)
	assert.Equal(t, DelayRange{Min: time.Second, Max: 10 * time.Second}, config.Sources["iqplus"].Delay)
	assert.False(t, config.Sources["pasardana"].Enabled)
	assert.Equal(t, "https://example.com/market/rss", config.Sources["cnbc"].BaseURL)
	assert.NotContains(t, config.EnabledSources(), "pasardana")
	assert.Equal(t, []string{"bisnis", "cnbc", "idx", "iqplus", "kontan"}, config.EnabledSources())
}

func TestLoadSourcesFileErrors(t *testing.T) {
	config := LoadConfig()
	err := config.LoadSourcesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsConfiguration(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delay_request_range: [1]\n"), 0o644))
	err = config.LoadSourcesFile(path)
	assert.True(t, errors.IsConfiguration(err))
}
