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

// Config holds the glassbox API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Sections   []SectionConfig  `yaml:"sections"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	TransactionSec  int `yaml:"transaction_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// GenerationConfig holds generation provider and orchestration settings.
type GenerationConfig struct {
	Provider         string         `yaml:"provider"` // openai, claude (default: openai)
	OpenAI           ProviderConfig `yaml:"openai"`
	Claude           ProviderConfig `yaml:"claude"`
	MaxConcurrent    int            `yaml:"max_concurrent"`
	MaxAttempts      int            `yaml:"max_attempts"`
	InitialBackoffMS int            `yaml:"initial_backoff_ms"`
	MaxBackoffMS     int            `yaml:"max_backoff_ms"`
	RateLimitPerSec  float64        `yaml:"rate_limit_per_sec"` // 0 = unlimited
}

// ProviderConfig holds settings for one generation provider.
type ProviderConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ChunkingConfig holds source document chunking settings.
type ChunkingConfig struct {
	MinChunkChars  int `yaml:"min_chunk_chars"`
	MaxChunkChars  int `yaml:"max_chunk_chars"`
	MaxSourceBytes int `yaml:"max_source_bytes"`
}

// SectionConfig describes one target section of the generated document.
// Order in the list is generation order.
type SectionConfig struct {
	Key                 string  `yaml:"key"`
	Title               string  `yaml:"title"`
	PromptTemplate      string  `yaml:"prompt_template"`
	MaxChunks           int     `yaml:"max_chunks"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		// Transactions hold the response open for the whole generation phase.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.TransactionSec <= 0 {
		c.HTTP.TransactionSec = 90
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "glassbox:"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "openai"
	}
	if c.Generation.MaxConcurrent <= 0 {
		c.Generation.MaxConcurrent = 4
	}
	if c.Generation.MaxAttempts <= 0 {
		c.Generation.MaxAttempts = 3
	}
	if c.Generation.InitialBackoffMS <= 0 {
		c.Generation.InitialBackoffMS = 500
	}
	if c.Generation.MaxBackoffMS <= 0 {
		c.Generation.MaxBackoffMS = 8000
	}
	if c.Chunking.MinChunkChars <= 0 {
		c.Chunking.MinChunkChars = 200
	}
	if c.Chunking.MaxChunkChars <= 0 {
		c.Chunking.MaxChunkChars = 1500
	}
	if c.Chunking.MaxSourceBytes <= 0 {
		c.Chunking.MaxSourceBytes = 262144 // 256KB
	}
	for i := range c.Sections {
		if c.Sections[i].MaxChunks <= 0 {
			c.Sections[i].MaxChunks = 5
		}
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
	switch c.Generation.Provider {
	case "openai", "claude":
		// ok
	default:
		return fmt.Errorf("generation.provider must be \"openai\" or \"claude\", got %q", c.Generation.Provider)
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}
	seen := make(map[string]bool, len(c.Sections))
	for _, s := range c.Sections {
		if s.Key == "" {
			return fmt.Errorf("sections[].key is required")
		}
		if seen[s.Key] {
			return fmt.Errorf("duplicate section key %q", s.Key)
		}
		seen[s.Key] = true
		if s.PromptTemplate == "" {
			return fmt.Errorf("section %q: prompt_template is required", s.Key)
		}
		if s.SimilarityThreshold < 0 || s.SimilarityThreshold > 1 {
			return fmt.Errorf("section %q: similarity_threshold must be in [0,1], got %f",
				s.Key, s.SimilarityThreshold)
		}
	}
	if c.Chunking.MinChunkChars >= c.Chunking.MaxChunkChars {
		return fmt.Errorf("chunking.min_chunk_chars (%d) must be below max_chunk_chars (%d)",
			c.Chunking.MinChunkChars, c.Chunking.MaxChunkChars)
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
