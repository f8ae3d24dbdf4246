package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv        = "NEWS_MARKETS_CONFIG"
	llmAPIKeyEnv         = "LLM_API_KEY"
	llmModelEnv          = "LLM_MODEL"
	publishURLEnv        = "PUBLISH_API_URL"
	publishTokenEnv      = "PUBLISH_API_TOKEN"
	databaseDSNEnv       = "DATABASE_DSN"
	outputDirEnv         = "OUTPUT_DIR"
	schedulerIntervalEnv = "SCHEDULER_INTERVAL_MINUTES"
	healthAddrEnv        = "HEALTH_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging      LoggingConfig       `yaml:"logging"`
	Scheduler    SchedulerConfig     `yaml:"scheduler"`
	Pipeline     PipelineConfig      `yaml:"pipeline"`
	LLM          LLMConfig           `yaml:"llm"`
	Publish      PublishConfig       `yaml:"publish"`
	Database     DatabaseConfig      `yaml:"database"`
	Output       OutputConfig        `yaml:"output"`
	Feeds        []FeedConfig        `yaml:"feeds"`
	Tags         []string            `yaml:"tags"`
	CategoryTags map[string][]string `yaml:"categoryTags"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines how often the daemon re-runs the pipeline.
type SchedulerConfig struct {
	IntervalMinutes int    `yaml:"intervalMinutes"`
	MaxRunRetries   int    `yaml:"maxRunRetries"`
	HealthAddr      string `yaml:"healthAddr"`
}

// Interval resolves the configured minutes to a duration.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// PipelineConfig bounds the orchestration run.
type PipelineConfig struct {
	RecentDays          int     `yaml:"recentDays"`
	MarketsPerCategory  int     `yaml:"marketsPerCategory"`
	MaxRetries          int     `yaml:"maxRetries"`
	TimeoutSeconds      int     `yaml:"timeoutSeconds"`
	Workers             int     `yaml:"workers"`
	FeedRetryDelaySecs  float64 `yaml:"feedRetryDelaySeconds"`
	RateLimitDelaySecs  float64 `yaml:"rateLimitDelaySeconds"`
	CheckpointDirectory string  `yaml:"checkpointDir"`
}

// Timeout resolves the per-call network timeout.
func (p PipelineConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// FeedRetryDelay is the pause between feed fetch attempts.
func (p PipelineConfig) FeedRetryDelay() time.Duration {
	return time.Duration(p.FeedRetryDelaySecs * float64(time.Second))
}

// RateLimitDelay spaces out generation calls to respect provider quotas.
func (p PipelineConfig) RateLimitDelay() time.Duration {
	return time.Duration(p.RateLimitDelaySecs * float64(time.Second))
}

// LLMConfig defines how to contact the generation provider.
type LLMConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	Temperature  float64 `yaml:"temperature"`
	SystemPrompt string  `yaml:"systemPrompt"`
}

// PublishConfig wires the remote content store. Credentials come from the
// environment only; they are never compiled in.
type PublishConfig struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"-"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxRetries     int    `yaml:"maxRetries"`
	RetryDelaySecs int    `yaml:"retryDelaySeconds"`
}

// Timeout resolves the publish call timeout.
func (p PublishConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// RetryDelay is the pause between publish retries for one market.
func (p PublishConfig) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelaySecs) * time.Second
}

// DatabaseConfig describes the optional Postgres audit connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// OutputConfig controls artifact placement and market constants.
type OutputConfig struct {
	Directory       string `yaml:"directory"`
	CreatorID       string `yaml:"creatorId"`
	InitialYesCount int    `yaml:"initialYesCount"`
	InitialNoCount  int    `yaml:"initialNoCount"`
}

// FeedConfig describes a single categorized feed with optional fallbacks.
type FeedConfig struct {
	URL          string   `yaml:"url"`
	Category     string   `yaml:"category"`
	FallbackURLs []string `yaml:"fallbackUrls"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}
	if len(cfg.Tags) == 0 {
		cfg.Tags = defaultConfig().Tags
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(publishURLEnv); v != "" {
		c.Publish.URL = v
	}
	if v := os.Getenv(publishTokenEnv); v != "" {
		c.Publish.Token = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(outputDirEnv); v != "" {
		c.Output.Directory = v
	}
	if v := os.Getenv(healthAddrEnv); v != "" {
		c.Scheduler.HealthAddr = v
	}
	if v := os.Getenv(schedulerIntervalEnv); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			c.Scheduler.IntervalMinutes = minutes
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scheduler.IntervalMinutes > 0 {
		base.Scheduler.IntervalMinutes = override.Scheduler.IntervalMinutes
	}
	if override.Scheduler.MaxRunRetries > 0 {
		base.Scheduler.MaxRunRetries = override.Scheduler.MaxRunRetries
	}
	if override.Scheduler.HealthAddr != "" {
		base.Scheduler.HealthAddr = override.Scheduler.HealthAddr
	}

	if override.Pipeline.RecentDays > 0 {
		base.Pipeline.RecentDays = override.Pipeline.RecentDays
	}
	if override.Pipeline.MarketsPerCategory > 0 {
		base.Pipeline.MarketsPerCategory = override.Pipeline.MarketsPerCategory
	}
	if override.Pipeline.MaxRetries > 0 {
		base.Pipeline.MaxRetries = override.Pipeline.MaxRetries
	}
	if override.Pipeline.TimeoutSeconds > 0 {
		base.Pipeline.TimeoutSeconds = override.Pipeline.TimeoutSeconds
	}
	if override.Pipeline.Workers > 0 {
		base.Pipeline.Workers = override.Pipeline.Workers
	}
	if override.Pipeline.FeedRetryDelaySecs > 0 {
		base.Pipeline.FeedRetryDelaySecs = override.Pipeline.FeedRetryDelaySecs
	}
	if override.Pipeline.RateLimitDelaySecs > 0 {
		base.Pipeline.RateLimitDelaySecs = override.Pipeline.RateLimitDelaySecs
	}
	if override.Pipeline.CheckpointDirectory != "" {
		base.Pipeline.CheckpointDirectory = override.Pipeline.CheckpointDirectory
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}

	if override.Publish.URL != "" {
		base.Publish.URL = override.Publish.URL
	}
	if override.Publish.TimeoutSeconds > 0 {
		base.Publish.TimeoutSeconds = override.Publish.TimeoutSeconds
	}
	if override.Publish.MaxRetries > 0 {
		base.Publish.MaxRetries = override.Publish.MaxRetries
	}
	if override.Publish.RetryDelaySecs > 0 {
		base.Publish.RetryDelaySecs = override.Publish.RetryDelaySecs
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Output.Directory != "" {
		base.Output.Directory = override.Output.Directory
	}
	if override.Output.CreatorID != "" {
		base.Output.CreatorID = override.Output.CreatorID
	}
	if override.Output.InitialYesCount > 0 {
		base.Output.InitialYesCount = override.Output.InitialYesCount
	}
	if override.Output.InitialNoCount > 0 {
		base.Output.InitialNoCount = override.Output.InitialNoCount
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}
	if len(override.Tags) > 0 {
		base.Tags = override.Tags
	}
	if len(override.CategoryTags) > 0 {
		base.CategoryTags = override.CategoryTags
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{IntervalMinutes: 30, MaxRunRetries: 3, HealthAddr: ":5000"},
		Pipeline: PipelineConfig{
			RecentDays:          5,
			MarketsPerCategory:  30,
			MaxRetries:          3,
			TimeoutSeconds:      30,
			Workers:             5,
			FeedRetryDelaySecs:  2,
			RateLimitDelaySecs:  4.5,
			CheckpointDirectory: "checkpoints",
		},
		LLM: LLMConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			Temperature:  0.2,
			SystemPrompt: "You are an expert at creating prediction market questions based on news articles.",
		},
		Publish: PublishConfig{
			TimeoutSeconds: 10,
			MaxRetries:     3,
			RetryDelaySecs: 5,
		},
		Output: OutputConfig{
			Directory:       "outputs",
			CreatorID:       "kalshi-generator",
			InitialYesCount: 50000,
			InitialNoCount:  50000,
		},
		Feeds:        defaultFeeds(),
		Tags:         defaultTags(),
		CategoryTags: defaultCategoryTags(),
	}
}

func defaultFeeds() []FeedConfig {
	return []FeedConfig{
		{URL: "https://feeds.feedburner.com/ndtvnews-india-news", Category: "Politics"},
		{URL: "https://www.rollingstone.com/culture/feed/", Category: "Culture"},
		{URL: "https://cointelegraph.com/rss", Category: "Crypto"},
		{URL: "https://www.livemint.com/rss/economy", Category: "Economics"},
		{URL: "https://techcrunch.com/feed/", Category: "Companies"},
		{URL: "https://www.aljazeera.com/xml/rss/all.xml", Category: "World"},
		{URL: "https://rss.nytimes.com/services/xml/rss/nyt/World.xml", Category: "World"},
		{URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Category: "World"},
		{URL: "https://www.theguardian.com/world/rss", Category: "World"},
		{URL: "https://rss.nytimes.com/services/xml/rss/nyt/Technology.xml", Category: "Tech & Science"},
		{URL: "https://feeds.wired.com/wired/index", Category: "Tech & Science"},
		{URL: "https://rss.nytimes.com/services/xml/rss/nyt/Business.xml", Category: "Companies"},
		{URL: "https://www.economist.com/finance-and-economics/rss.xml", Category: "Economics"},
	}
}

func defaultTags() []string {
	return []string{
		"Politics", "Sports", "Business", "Finance", "Entertainment", "Technology", "Science", "Health",
		"World Affairs", "Climate", "Crypto", "Economy", "Companies", "Consumer Trends", "Travel",
		"Education", "Energy", "Environment", "Weather", "Law", "Government", "Elections", "Stock Market",
		"Startups", "Public Figures", "Awards", "Festivals", "Innovation", "Gadgets", "Artificial Intelligence",
		"Space", "Mergers & Acquisitions", "Real Estate", "Agriculture", "Food & Beverage", "Defense & Military",
		"Currency", "Trade", "Pandemics", "Employment", "Media & News", "Transportation", "Social Media Trends",
		"IPOs", "Court Cases", "Natural Disasters", "Religion", "International Relations", "Diplomacy", "Conflict",
	}
}

func defaultCategoryTags() map[string][]string {
	return map[string][]string{
		"Politics":       {"Politics", "Government", "Elections", "Law", "Public Figures", "Diplomacy"},
		"Culture":        {"Entertainment", "Awards", "Festivals", "Media & News", "Religion", "Social Media Trends"},
		"Crypto":         {"Crypto", "Currency", "Finance", "Technology", "Stock Market"},
		"Economics":      {"Economy", "Finance", "Trade", "Employment", "Stock Market", "Currency"},
		"Companies":      {"Companies", "Business", "Startups", "Mergers & Acquisitions", "IPOs", "Stock Market"},
		"World":          {"World Affairs", "International Relations", "Conflict", "Diplomacy", "Natural Disasters"},
		"Tech & Science": {"Technology", "Science", "Artificial Intelligence", "Innovation", "Gadgets", "Space"},
		"Sports":         {"Sports", "Awards", "Public Figures"},
		"Health":         {"Health", "Pandemics", "Science"},
		"Climate":        {"Climate", "Environment", "Weather", "Energy", "Natural Disasters"},
	}
}
