// Package config loads and validates selfrag settings from YAML, .env files
// and the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Index      IndexConfig      `yaml:"index"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Revision   RevisionConfig   `yaml:"revision"`
	Memory     MemoryConfig     `yaml:"memory"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// GenerationConfig selects the text generation backend.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"` // openai | claude | gemini | ollama | groq
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`   // per call
	RateLimit   float64       `yaml:"rate_limit"` // calls per second, 0 disables
	Retries     int           `yaml:"retries"`
	Tokenizer   string        `yaml:"tokenizer"` // simple | tiktoken
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // openai | ollama
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
	Normalize bool   `yaml:"normalize"`
}

// IndexConfig selects the vector index.
type IndexConfig struct {
	Backend    string `yaml:"backend"` // memory | chromem
	Collection string `yaml:"collection"`
}

// ChunkingConfig controls text cleaning and chunking. Size and Overlap count
// characters, or tokens for the token strategy.
type ChunkingConfig struct {
	Strategy string `yaml:"strategy"` // window | markdown | token
	Size     int    `yaml:"size"`
	Overlap  int    `yaml:"overlap"`
	Clean    bool   `yaml:"clean"`
}

// RetrievalConfig controls nearest-neighbour retrieval.
type RetrievalConfig struct {
	TopK              int     `yaml:"top_k"`
	DistanceThreshold float64 `yaml:"distance_threshold"`
}

// RevisionConfig controls the critique and revision loop.
type RevisionConfig struct {
	MaxRounds int `yaml:"max_rounds"`
}

// MemoryConfig controls the session log.
type MemoryConfig struct {
	RecentTurns         int  `yaml:"recent_turns"`
	ConversationContext bool `yaml:"conversation_context"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Generation: GenerationConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   256,
			Timeout:     60 * time.Second,
			Retries:     2,
			Tokenizer:   "simple",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			Dimension: 384,
			Normalize: true,
		},
		Index: IndexConfig{
			Backend:    "memory",
			Collection: "selfrag",
		},
		Chunking: ChunkingConfig{
			Strategy: "window",
			Size:     600,
			Overlap:  100,
			Clean:    true,
		},
		Retrieval: RetrievalConfig{
			TopK:              3,
			DistanceThreshold: 1.5,
		},
		Revision: RevisionConfig{
			MaxRounds: 2,
		},
		Memory: MemoryConfig{
			RecentTurns: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "selfrag",
		},
	}
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse is Load without validation. Commands that never reach a backend use
// it so they run without credentials.
func Parse(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides settings from SELFRAG_* variables and fills API keys
// from the provider's conventional variable.
func (c *Config) ApplyEnv() {
	g := &c.Generation
	g.Provider = strings.ToLower(getEnv("SELFRAG_PROVIDER", g.Provider))
	g.Model = getEnv("SELFRAG_MODEL", g.Model)
	g.BaseURL = getEnv("SELFRAG_BASE_URL", g.BaseURL)
	g.APIKey = getEnv("SELFRAG_API_KEY", g.APIKey)
	if g.APIKey == "" {
		g.APIKey = os.Getenv(providerKeyEnv(g.Provider))
	}
	g.Temperature = getEnvFloat("SELFRAG_TEMPERATURE", g.Temperature)
	g.MaxTokens = getEnvInt("SELFRAG_MAX_TOKENS", g.MaxTokens)
	g.Timeout = getEnvDuration("SELFRAG_TIMEOUT", g.Timeout)
	g.RateLimit = getEnvFloat("SELFRAG_RATE_LIMIT", g.RateLimit)
	g.Retries = getEnvInt("SELFRAG_RETRIES", g.Retries)
	g.Tokenizer = getEnv("SELFRAG_TOKENIZER", g.Tokenizer)

	e := &c.Embedding
	e.Provider = strings.ToLower(getEnv("SELFRAG_EMBEDDING_PROVIDER", e.Provider))
	e.Model = getEnv("SELFRAG_EMBEDDING_MODEL", e.Model)
	e.BaseURL = getEnv("SELFRAG_EMBEDDING_BASE_URL", e.BaseURL)
	e.APIKey = getEnv("SELFRAG_EMBEDDING_API_KEY", e.APIKey)
	if e.APIKey == "" {
		e.APIKey = os.Getenv(providerKeyEnv(e.Provider))
	}
	e.Dimension = getEnvInt("SELFRAG_EMBEDDING_DIMENSION", e.Dimension)

	c.Index.Backend = strings.ToLower(getEnv("SELFRAG_INDEX_BACKEND", c.Index.Backend))
	c.Chunking.Strategy = strings.ToLower(getEnv("SELFRAG_CHUNKING_STRATEGY", c.Chunking.Strategy))
	c.Retrieval.TopK = getEnvInt("SELFRAG_TOP_K", c.Retrieval.TopK)
	c.Retrieval.DistanceThreshold = getEnvFloat("SELFRAG_DISTANCE_THRESHOLD", c.Retrieval.DistanceThreshold)
	c.Revision.MaxRounds = getEnvInt("SELFRAG_MAX_ROUNDS", c.Revision.MaxRounds)
	c.Logging.Level = getEnv("SELFRAG_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("SELFRAG_LOG_FORMAT", c.Logging.Format)
	c.Telemetry.Enabled = getEnvBool("SELFRAG_TELEMETRY", c.Telemetry.Enabled)
}

// Validate checks every section.
func (c *Config) Validate() error {
	v := NewValidator()

	g := c.Generation
	v.ValidateOneOf("generation.provider", g.Provider, "openai", "claude", "gemini", "ollama", "groq")
	v.RequireIf(needsKey(g.Provider), "generation.api_key", g.APIKey, "for provider "+g.Provider)
	v.ValidateFloatRange("generation.temperature", g.Temperature, 0, 2)
	v.RequirePositive("generation.max_tokens", g.MaxTokens)
	v.ValidateFloatRange("generation.rate_limit", g.RateLimit, 0, math.MaxFloat64)
	v.ValidateRange("generation.retries", g.Retries, 0, 10)
	v.ValidateOneOf("generation.tokenizer", g.Tokenizer, "simple", "tiktoken")

	e := c.Embedding
	v.ValidateOneOf("embedding.provider", e.Provider, "openai", "ollama")
	v.RequireIf(needsKey(e.Provider), "embedding.api_key", e.APIKey, "for provider "+e.Provider)
	v.RequireNonNegative("embedding.dimension", e.Dimension)

	v.ValidateOneOf("index.backend", c.Index.Backend, "memory", "chromem")
	v.RequireIf(c.Index.Backend == "chromem", "index.collection", c.Index.Collection, "for backend chromem")
	if c.Index.Backend == "memory" {
		v.RequirePositive("embedding.dimension", e.Dimension)
	}

	v.ValidateOneOf("chunking.strategy", c.Chunking.Strategy, "window", "markdown", "token")
	v.RequirePositive("chunking.size", c.Chunking.Size)
	v.RequireNonNegative("chunking.overlap", c.Chunking.Overlap)
	v.RequireLess("chunking.overlap", c.Chunking.Overlap, c.Chunking.Size)

	v.RequirePositive("retrieval.top_k", c.Retrieval.TopK)
	v.ValidateFloatRange("retrieval.distance_threshold", c.Retrieval.DistanceThreshold, math.SmallestNonzeroFloat64, math.MaxFloat64)
	v.ValidateRange("revision.max_rounds", c.Revision.MaxRounds, 0, 10)
	v.RequirePositive("memory.recent_turns", c.Memory.RecentTurns)

	v.ValidateOneOf("logging.level", strings.ToLower(c.Logging.Level), "debug", "info", "warn", "warning", "error")
	v.ValidateOneOf("logging.format", strings.ToLower(c.Logging.Format), "json", "text")

	return v.Error()
}

func needsKey(provider string) bool {
	switch provider {
	case "openai", "claude", "gemini", "groq":
		return true
	}
	return false
}

func providerKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	}
	return ""
}

// Helper functions for environment variable reading

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
