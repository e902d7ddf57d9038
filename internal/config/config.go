// Package config loads application configuration from file, environment
// and defaults via viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       App       `mapstructure:"app"`
	AI        AI        `mapstructure:"ai"`
	Signals   Signals   `mapstructure:"signals"`
	Pipeline  Pipeline  `mapstructure:"pipeline"`
	Cache     Cache     `mapstructure:"cache"`
	Output    Output    `mapstructure:"output"`
	Messaging Messaging `mapstructure:"messaging"`
}

// App holds general application configuration.
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// AI holds generative-service configuration.
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// Signals holds feed-source configuration.
type Signals struct {
	RSSFeeds       []string `mapstructure:"rss_feeds"`
	HackerNews     bool     `mapstructure:"hacker_news"`
	ArxivQuery     string   `mapstructure:"arxiv_query"`
	MaxPerSource   int      `mapstructure:"max_per_source"`
	MaxConcurrency int      `mapstructure:"max_concurrency"`
	Timeout        string   `mapstructure:"timeout"`
	UserAgent      string   `mapstructure:"user_agent"`
}

// Pipeline holds the quality-gate and loop thresholds. Defaults encode
// empirically-chosen constants; change them only deliberately.
type Pipeline struct {
	MaxAttempts            int     `mapstructure:"max_attempts"`
	IdeasPerAttempt        int     `mapstructure:"ideas_per_attempt"`
	MinValidIdeas          int     `mapstructure:"min_valid_ideas"`
	MinConceptTutorials    int     `mapstructure:"min_concept_tutorials"`
	PoolSize               int     `mapstructure:"pool_size"`
	MaxMatchedConcepts     int     `mapstructure:"max_matched_concepts"`
	MinMatchedConcepts     int     `mapstructure:"min_matched_concepts"`
	StrictFitThreshold     int     `mapstructure:"strict_fit_threshold"`
	FallbackFitCap         int     `mapstructure:"fallback_fit_cap"`
	GapPriorityFloor       int     `mapstructure:"gap_priority_floor"`
	MaxGaps                int     `mapstructure:"max_gaps"`
	DifferentiatorFloor    int     `mapstructure:"differentiator_floor"`
	IdeaConfidenceFloor    float64 `mapstructure:"idea_confidence_floor"`
	MaxSignalsForExtraction int    `mapstructure:"max_signals_for_extraction"`
}

// Cache holds durable-cache configuration.
type Cache struct {
	Directory     string `mapstructure:"directory"`
	ConceptMaxAge string `mapstructure:"concept_max_age"`
}

// Output holds rendering configuration.
type Output struct {
	Directory string `mapstructure:"directory"`
	Format    string `mapstructure:"format"`
}

// Messaging holds chat-notification configuration.
type Messaging struct {
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
	Enabled         bool   `mapstructure:"enabled"`
}

var globalConfig *Config

// Load loads configuration from .env, config file, environment and defaults.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".ideaforge")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the global configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".ideaforge")

	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.max_tokens", 8192)
	viper.SetDefault("ai.gemini.temperature", 0.7)

	viper.SetDefault("signals.rss_feeds", []string{})
	viper.SetDefault("signals.hacker_news", true)
	viper.SetDefault("signals.arxiv_query", "cat:cs.AI")
	viper.SetDefault("signals.max_per_source", 30)
	viper.SetDefault("signals.max_concurrency", 5)
	viper.SetDefault("signals.timeout", "30s")
	viper.SetDefault("signals.user_agent", "ideaforge/1.0")

	viper.SetDefault("pipeline.max_attempts", 2)
	viper.SetDefault("pipeline.ideas_per_attempt", 5)
	viper.SetDefault("pipeline.min_valid_ideas", 3)
	viper.SetDefault("pipeline.min_concept_tutorials", 3)
	viper.SetDefault("pipeline.pool_size", 16)
	viper.SetDefault("pipeline.max_matched_concepts", 5)
	viper.SetDefault("pipeline.min_matched_concepts", 3)
	viper.SetDefault("pipeline.strict_fit_threshold", 70)
	viper.SetDefault("pipeline.fallback_fit_cap", 79)
	viper.SetDefault("pipeline.gap_priority_floor", 55)
	viper.SetDefault("pipeline.max_gaps", 8)
	viper.SetDefault("pipeline.differentiator_floor", 60)
	viper.SetDefault("pipeline.idea_confidence_floor", 0.4)
	viper.SetDefault("pipeline.max_signals_for_extraction", 40)

	viper.SetDefault("cache.directory", ".ideaforge")
	viper.SetDefault("cache.concept_max_age", "24h")

	viper.SetDefault("output.directory", "ideas")
	viper.SetDefault("output.format", "markdown")

	viper.SetDefault("messaging.enabled", false)
}

func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{"GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_AI_API_KEY"})
	bindEnvKeys("messaging.slack_webhook_url", []string{"SLACK_WEBHOOK_URL"})
	bindEnvKeys("app.data_dir", []string{"IDEAFORGE_DATA_DIR"})
}

func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

func validateConfig(config *Config) error {
	if config.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("pipeline.max_attempts must be at least 1, got %d", config.Pipeline.MaxAttempts)
	}
	if config.Pipeline.IdeasPerAttempt < 1 {
		return fmt.Errorf("pipeline.ideas_per_attempt must be at least 1, got %d", config.Pipeline.IdeasPerAttempt)
	}
	if config.Pipeline.MinMatchedConcepts > config.Pipeline.MaxMatchedConcepts {
		return fmt.Errorf("pipeline.min_matched_concepts (%d) exceeds max_matched_concepts (%d)",
			config.Pipeline.MinMatchedConcepts, config.Pipeline.MaxMatchedConcepts)
	}
	if _, err := time.ParseDuration(config.Cache.ConceptMaxAge); err != nil {
		return fmt.Errorf("cache.concept_max_age is not a valid duration: %w", err)
	}
	if _, err := time.ParseDuration(config.AI.Gemini.Timeout); err != nil {
		return fmt.Errorf("ai.gemini.timeout is not a valid duration: %w", err)
	}
	return nil
}

// ConceptMaxAge returns the cache TTL as a duration.
func (c *Config) ConceptMaxAge() time.Duration {
	d, err := time.ParseDuration(c.Cache.ConceptMaxAge)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GeminiTimeout returns the per-call LLM timeout as a duration.
func (c *Config) GeminiTimeout() time.Duration {
	d, err := time.ParseDuration(c.AI.Gemini.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetGeminiAPIKey returns the configured Gemini API key.
func GetGeminiAPIKey() string { return Get().AI.Gemini.APIKey }

// GetGeminiModel returns the configured Gemini model name.
func GetGeminiModel() string { return Get().AI.Gemini.Model }
