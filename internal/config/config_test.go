package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(llmAPIKeyEnv, "")
	t.Setenv(outputDirEnv, "")

	cfg := Load()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Pipeline.RecentDays)
	assert.Equal(t, 30, cfg.Pipeline.MarketsPerCategory)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 5, cfg.Pipeline.Workers)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.Timeout())
	assert.Equal(t, 2*time.Second, cfg.Pipeline.FeedRetryDelay())
	assert.Equal(t, 4500*time.Millisecond, cfg.Pipeline.RateLimitDelay())
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Interval())
	assert.Equal(t, "kalshi-generator", cfg.Output.CreatorID)
	assert.Equal(t, 50000, cfg.Output.InitialYesCount)
	assert.NotEmpty(t, cfg.Feeds)
	assert.NotEmpty(t, cfg.Tags)
	assert.NotEmpty(t, cfg.CategoryTags["Crypto"])
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
pipeline:
  recentDays: 2
  workers: 2
feeds:
  - url: https://example.org/rss
    category: Crypto
    fallbackUrls:
      - https://mirror.example.org/rss
`), 0o644))
	t.Setenv(configPathEnv, path)
	t.Setenv(llmAPIKeyEnv, "")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Pipeline.RecentDays)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	// Values the file does not mention keep their defaults.
	assert.Equal(t, 30, cfg.Pipeline.MarketsPerCategory)

	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "Crypto", cfg.Feeds[0].Category)
	assert.Equal(t, []string{"https://mirror.example.org/rss"}, cfg.Feeds[0].FallbackURLs)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(llmAPIKeyEnv, "sk-test")
	t.Setenv(llmModelEnv, "gpt-4o")
	t.Setenv(publishURLEnv, "https://store.example.org")
	t.Setenv(publishTokenEnv, "token-123")
	t.Setenv(outputDirEnv, "/tmp/out")
	t.Setenv(schedulerIntervalEnv, "15")

	cfg := Load()

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "https://store.example.org", cfg.Publish.URL)
	assert.Equal(t, "token-123", cfg.Publish.Token)
	assert.Equal(t, "/tmp/out", cfg.Output.Directory)
	assert.Equal(t, 15, cfg.Scheduler.IntervalMinutes)
}

func TestLoadIgnoresUnreadableFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(llmAPIKeyEnv, "")

	cfg := Load()
	assert.Equal(t, 5, cfg.Pipeline.RecentDays)
}

func TestPublishTokenNeverComesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
publish:
  url: https://store.example.org
  token: should-be-ignored
`), 0o644))
	t.Setenv(configPathEnv, path)
	t.Setenv(publishTokenEnv, "")

	cfg := Load()

	assert.Equal(t, "https://store.example.org", cfg.Publish.URL)
	assert.Empty(t, cfg.Publish.Token, "credential must only come from the environment")
}
