package tts

import (
	"log/slog"
	"time"
)

// Config is shared by every provider. Each provider ignores the fields
// that do not apply to it: espeak-ng has no API key, the cloud voices have
// no binary.
type Config struct {
	APIKey  string
	BaseURL string // empty means the provider's public endpoint

	VoiceID       string // voice ID, preset name, or espeak-ng voice
	ModelID       string
	VoiceSettings VoiceSettings
	OutputFormat  Encoding

	Binary string // espeak-ng executable
	Rate   int    // espeak-ng words per minute

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option configures a provider.
type Option func(*Config)

func WithAPIKey(key string) Option  { return func(c *Config) { c.APIKey = key } }
func WithBaseURL(url string) Option { return func(c *Config) { c.BaseURL = url } }
func WithVoice(id string) Option    { return func(c *Config) { c.VoiceID = id } }
func WithModel(id string) Option    { return func(c *Config) { c.ModelID = id } }
func WithBinary(path string) Option { return func(c *Config) { c.Binary = path } }
func WithRate(wpm int) Option       { return func(c *Config) { c.Rate = wpm } }

func WithOutputFormat(format Encoding) Option {
	return func(c *Config) { c.OutputFormat = format }
}

func WithVoiceSettings(settings VoiceSettings) Option {
	return func(c *Config) { c.VoiceSettings = settings }
}

// WithTimeout bounds one synthesis request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetry retries 429 and 5xx answers maxRetries times, waiting delay,
// then 2*delay, and so on.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns MP3 output with one quick retry.
func DefaultConfig() *Config {
	return &Config{
		ModelID:       ModelFlashV2_5,
		OutputFormat:  EncodingMP3,
		VoiceSettings: DefaultVoiceSettings(),
		Timeout:       15 * time.Second,
		MaxRetries:    1,
		RetryDelay:    200 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate requires an API key.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// ValidateWithVoice requires an API key and a voice.
func (c *Config) ValidateWithVoice() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}
