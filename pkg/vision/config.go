package vision

import (
	"log/slog"
	"net/http"
	"time"
)

// FeatureObjectLocalization is the Cloud Vision feature type used for detection.
const FeatureObjectLocalization = "OBJECT_LOCALIZATION"

// Config holds detection client configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Credentials. With no API key, Application Default Credentials are used.
	APIKey string

	// Endpoint overrides the service base URL (tests, regional endpoints).
	Endpoint string

	// HTTPClient replaces the transport entirely; auth options are then ignored.
	HTTPClient *http.Client

	// MaxResults is the number of annotations requested. The top one is used.
	MaxResults int64

	// Timeout bounds a single request. 0 means no client-side timeout.
	Timeout time.Duration

	// Retry configuration for 429 and 5xx answers. 0 retries by default.
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEndpoint overrides the service base URL.
func WithEndpoint(url string) Option {
	return func(c *Config) {
		c.Endpoint = url
	}
}

// WithHTTPClient sets a preconfigured HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry enables bounded retries for rate-limit and server errors.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default configuration: one result, no timeout, no retry.
func DefaultConfig() *Config {
	return &Config{
		MaxResults: 1,
		RetryDelay: 500 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
