// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable the runtime reads at startup. All fields have
// working defaults so a zero environment still boots with mock providers.
type Config struct {
	// OpenAIAPIKey enables the OpenAI text and embedding providers.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	// AnthropicAPIKey enables the Anthropic text provider.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`

	// DefaultProvider selects the text-generation backend: openai,
	// anthropic, or mock.
	DefaultProvider string `env:"IARA_DEFAULT_PROVIDER" envDefault:"mock"`
	// DefaultModel overrides the provider's default model when set.
	DefaultModel string `env:"IARA_DEFAULT_MODEL"`

	// RequestTimeout bounds every request/response exchange on the bus.
	RequestTimeout time.Duration `env:"IARA_REQUEST_TIMEOUT" envDefault:"30s"`

	// CacheTTL is how long retrieval query results stay fresh.
	CacheTTL time.Duration `env:"IARA_CACHE_TTL" envDefault:"300s"`

	// ChunkSize and ChunkOverlap tune the document splitter, in characters.
	ChunkSize    int `env:"IARA_CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap int `env:"IARA_CHUNK_OVERLAP" envDefault:"200"`

	// TopK is the default number of chunks returned per retrieval query.
	TopK int `env:"IARA_TOP_K" envDefault:"5"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"IARA_LOG_LEVEL" envDefault:"info"`
	// LogFormat is text or json.
	LogFormat string `env:"IARA_LOG_FORMAT" envDefault:"text"`
}

// Load reads the configuration from the process environment and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DefaultProvider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown provider %q", c.DefaultProvider)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top k must be positive, got %d", c.TopK)
	}
	return nil
}
