package domain

import "time"

// Provider identifies an LLM/embedding backend the gateway can route to.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderAnthropic   Provider = "anthropic"
	ProviderGoogle      Provider = "google"
	ProviderAzure       Provider = "azure"
	ProviderOllama      Provider = "ollama"
	ProviderHuggingFace Provider = "huggingface"
	ProviderOpenRouter  Provider = "openrouter"
)

// RequiresAPIKey reports whether a provider needs a credential to
// initialize. Ollama is self-hosted and does not.
func (p Provider) RequiresAPIKey() bool {
	return p != ProviderOllama
}

// IsValid reports whether p is one of the supported providers.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderAzure,
		ProviderOllama, ProviderHuggingFace, ProviderOpenRouter:
		return true
	default:
		return false
	}
}

// ProviderCredentials holds the connection details for one provider.
type ProviderCredentials struct {
	APIKey  string `json:"-"`
	BaseURL string `json:"base_url,omitempty"`
}

// ChunkingConfig holds the text chunker's default parameters (spec 4.2).
type ChunkingConfig struct {
	ChunkSize int `json:"chunk_size"`
	Overlap   int `json:"overlap"`
}

// DefaultChunkingConfig returns the defaults named throughout spec 4.2/4.5.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{ChunkSize: 1000, Overlap: 200}
}

// SearchConfig holds ranking/threshold defaults for the search engine (spec 4.6).
type SearchConfig struct {
	SimilarityThreshold float64 `json:"similarity_threshold"`
	SemanticWeight      float64 `json:"semantic_weight"`
	TextWeight          float64 `json:"text_weight"`
	DefaultLimit        int     `json:"default_limit"`
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		SimilarityThreshold: 0.7,
		SemanticWeight:      0.7,
		TextWeight:          0.3,
		DefaultLimit:        10,
	}
}

// SummarizationConfig gates the LLM gateway's Summarize operation (spec 4.3).
type SummarizationConfig struct {
	Enabled               bool `json:"enabled"`
	MinContentLength      int  `json:"min_content_length"`
	MaxLength             int  `json:"max_length"`
	MaxKeywords           int  `json:"max_keywords"`
}

func DefaultSummarizationConfig() SummarizationConfig {
	return SummarizationConfig{
		Enabled:          true,
		MinContentLength: 200,
		MaxLength:        500,
		MaxKeywords:      10,
	}
}

// DBConfig holds storage connection settings.
type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LogLevel is one of the severities from spec 6.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// Config is the core's top-level, immutable-after-construction
// configuration (C1). Client.Configure replaces it atomically rather
// than mutating a process global (spec 9's design note).
type Config struct {
	DefaultEmbeddingProvider string                         `json:"default_embedding_provider"` // "provider/model"
	DefaultChatProvider      string                         `json:"default_chat_provider"`
	Credentials              map[Provider]ProviderCredentials `json:"-"`

	Chunking      ChunkingConfig       `json:"chunking"`
	Search        SearchConfig         `json:"search"`
	Summarization SummarizationConfig  `json:"summarization"`

	DB       DBConfig `json:"-"`
	LogLevel LogLevel `json:"log_level"`
	LogFile  string   `json:"log_file"`

	RedisURL string `json:"-"`
	VespaURL string `json:"-"`
}

// DefaultConfig returns a Config with every default named in spec.md filled in.
func DefaultConfig() *Config {
	return &Config{
		DefaultEmbeddingProvider: "openai/text-embedding-3-small",
		DefaultChatProvider:      "openai/gpt-4o-mini",
		Credentials:              map[Provider]ProviderCredentials{},
		Chunking:                 DefaultChunkingConfig(),
		Search:                   DefaultSearchConfig(),
		Summarization:            DefaultSummarizationConfig(),
		LogLevel:                 LogLevelWarn,
	}
}

// Clone returns a deep-enough copy for atomic replacement by Configure.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Credentials = make(map[Provider]ProviderCredentials, len(c.Credentials))
	for k, v := range c.Credentials {
		clone.Credentials[k] = v
	}
	return &clone
}
