// Package config loads the tendersearch YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tendersearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"` // empty disables authentication
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds data-store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	QueryTimeoutSec  int      `yaml:"query_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Dimensions     int     `yaml:"dimensions"`
	TimeoutSec     int     `yaml:"timeout_sec"`
	NegationWeight float64 `yaml:"negation_weight"` // scale of the subtracted excluded-text vector
	CacheTTLHours  int     `yaml:"cache_ttl_hours"` // 0 = no expiry
}

// LLMConfig holds settings for the text-understanding and judgment service.
type LLMConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	Model      string        `yaml:"model"`
	TimeoutSec int           `yaml:"timeout_sec"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for LLM calls.
type BreakerConfig struct {
	MaxRequests uint32  `yaml:"max_requests"`
	IntervalSec int     `yaml:"interval_sec"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	TripRatio   float64 `yaml:"trip_ratio"`
}

// SearchConfig holds search pipeline defaults.
type SearchConfig struct {
	SemanticWeight  float64 `yaml:"semantic_weight"`
	KeywordWeight   float64 `yaml:"keyword_weight"`
	CategoryTopN    int     `yaml:"category_top_n"`
	DefaultLimit    int     `yaml:"default_limit"`
	MaxLimit        int     `yaml:"max_limit"`
	CandidateFactor int     `yaml:"candidate_factor"` // candidates fetched per requested result
}

// RelevanceConfig holds judgment filter settings.
type RelevanceConfig struct {
	FlexibleThreshold    float64 `yaml:"flexible_threshold"`
	RestrictiveThreshold float64 `yaml:"restrictive_threshold"`
	PoolSize             int     `yaml:"pool_size"`
}

// StorageConfig holds key layout settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.QueryTimeoutSec <= 0 {
		c.Database.QueryTimeoutSec = 5
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 15
	}
	if c.Embedding.NegationWeight <= 0 {
		c.Embedding.NegationWeight = 1.0
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.LLM.Breaker.MaxRequests == 0 {
		c.LLM.Breaker.MaxRequests = 3
	}
	if c.LLM.Breaker.IntervalSec <= 0 {
		c.LLM.Breaker.IntervalSec = 60
	}
	if c.LLM.Breaker.TimeoutSec <= 0 {
		c.LLM.Breaker.TimeoutSec = 30
	}
	if c.LLM.Breaker.TripRatio <= 0 {
		c.LLM.Breaker.TripRatio = 0.6
	}
	if c.Search.SemanticWeight <= 0 && c.Search.KeywordWeight <= 0 {
		c.Search.SemanticWeight = 0.5
		c.Search.KeywordWeight = 0.5
	}
	if c.Search.CategoryTopN <= 0 {
		c.Search.CategoryTopN = 5
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 20
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Search.CandidateFactor <= 0 {
		c.Search.CandidateFactor = 3
	}
	if c.Relevance.FlexibleThreshold <= 0 {
		c.Relevance.FlexibleThreshold = 0.4
	}
	if c.Relevance.RestrictiveThreshold <= 0 {
		c.Relevance.RestrictiveThreshold = 0.75
	}
	if c.Relevance.PoolSize <= 0 {
		c.Relevance.PoolSize = 4
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "tender:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Search.SemanticWeight < 0 || c.Search.KeywordWeight < 0 {
		return fmt.Errorf("search weights must not be negative")
	}
	if c.Search.SemanticWeight+c.Search.KeywordWeight == 0 {
		return fmt.Errorf("at least one of search.semantic_weight, search.keyword_weight must be positive")
	}
	if c.Relevance.RestrictiveThreshold < c.Relevance.FlexibleThreshold {
		return fmt.Errorf(
			"relevance.restrictive_threshold (%g) must not be below flexible_threshold (%g)",
			c.Relevance.RestrictiveThreshold, c.Relevance.FlexibleThreshold,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
