package types

import "time"

// Default values applied by DefaultConfig and by components when a field is zero.
const (
	DefaultEndpoint      = "https://api.bing.microsoft.com/v7.0/search"
	DefaultResultCount   = 50
	DefaultUserAgent     = "keyword-query/0.1"
	DefaultTimeout       = 30 * time.Second
	DefaultMaxBodyBytes  = 5 << 20
	DefaultMaxTextLength = 50_000
	DefaultMaxPages      = 5
	DefaultStorePath     = "results/keyword-query.db"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the web search client. The API key is not
// part of it; it is passed explicitly when the client is constructed.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the search provider URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Count is the number of results requested per query (1-50).
	Count int `json:"count" yaml:"count" mapstructure:"count"`

	// MaxRetries is the number of retries on HTTP 429. Zero disables retry.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ExtractionConfig holds settings for page fetching and text extraction.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxBodyBytes caps how much of a page body is read.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	// MaxTextLength truncates extracted text. Zero means unlimited.
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length" mapstructure:"max_text_length"`

	// MaxRetries is the number of retries on HTTP 429. Zero disables retry.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// BatchConfig holds settings for batch processing.
type BatchConfig struct {
	// Workers is the worker pool size. Zero or less means one per CPU core.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// RatePerSecond limits search calls across all workers. Zero means unlimited.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// MaxPages is the number of result pages extracted per row.
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// StoreConfig holds settings for the SQLite result store.
type StoreConfig struct {
	// Path is the database file path.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all stage configurations.
type Config struct {
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Batch      BatchConfig      `json:"batch" yaml:"batch" mapstructure:"batch"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
}

// DefaultConfig returns the configuration used when no file or flag overrides it.
func DefaultConfig() Config {
	httpCfg := HTTPConfig{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
	return Config{
		Search: SearchConfig{
			HTTPConfig: httpCfg,
			Endpoint:   DefaultEndpoint,
			Count:      DefaultResultCount,
			MaxRetries: 2,
		},
		Extraction: ExtractionConfig{
			HTTPConfig:    httpCfg,
			MaxBodyBytes:  DefaultMaxBodyBytes,
			MaxTextLength: DefaultMaxTextLength,
			MaxRetries:    1,
		},
		Batch: BatchConfig{
			MaxPages: DefaultMaxPages,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
	}
}
