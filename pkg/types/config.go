// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperfetch/0.1 (mailto:someone@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429. Zero disables retries
	// so rate limiting surfaces to the caller.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// PacingConfig selects the politeness policy applied between consecutive
// items of a batch. Rate wins over Delay when both are set.
type PacingConfig struct {
	// Delay is a fixed pause between consecutive items.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// Rate is a token-bucket rate in requests per second.
	Rate float64 `json:"rate,omitempty" yaml:"rate,omitempty" mapstructure:"rate"`

	// Burst is the token-bucket burst size (default 1).
	Burst int `json:"burst,omitempty" yaml:"burst,omitempty" mapstructure:"burst"`
}

// SearchConfig holds settings for the source adapters.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ContactEmail is sent to OpenAlex as the mailto parameter for polite pool access.
	ContactEmail string `json:"contact_email" yaml:"contact_email" mapstructure:"contact_email"`

	// GithubToken authenticates GitHub searches. Empty means unauthenticated.
	GithubToken string `json:"-" yaml:"-" mapstructure:"-"`
}

// AcquisitionConfig holds settings for the arXiv document acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Pacing applies between identifiers. Zero value means no delay.
	Pacing PacingConfig `json:"pacing" yaml:"pacing" mapstructure:"pacing"`

	// OutputDir is the absolute directory for downloaded documents.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// UnpaywallConfig holds settings for the Unpaywall bulk resolver.
type UnpaywallConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Email is required by Unpaywall on every request.
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// Pacing applies between DOIs (default 100ms fixed delay).
	Pacing PacingConfig `json:"pacing" yaml:"pacing" mapstructure:"pacing"`

	// OutputDir is the absolute directory for downloaded PDFs.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all stage configurations.
type Config struct {
	Search      SearchConfig      `json:"search" yaml:"search" mapstructure:"search"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Unpaywall   UnpaywallConfig   `json:"unpaywall" yaml:"unpaywall" mapstructure:"unpaywall"`
	Log         LoggingConfig     `json:"log" yaml:"log" mapstructure:"log"`

	// MetricsFile, when set, receives Prometheus metrics in textfile format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// Defaults for Config.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultUserAgent      = "paperfetch/0.1"
	DefaultContactEmail   = "research@paperfetch.dev"
	DefaultUnpaywallDelay = 100 * time.Millisecond
)

// DefaultConfig returns a Config with every stage populated with defaults.
func DefaultConfig() Config {
	http := HTTPConfig{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
	return Config{
		Search: SearchConfig{
			HTTPConfig:   http,
			ContactEmail: DefaultContactEmail,
		},
		Acquisition: AcquisitionConfig{HTTPConfig: http},
		Unpaywall: UnpaywallConfig{
			HTTPConfig: http,
			Email:      DefaultContactEmail,
			Pacing:     PacingConfig{Delay: DefaultUnpaywallDelay},
		},
		Log: LoggingConfig{Level: "info", Format: "console"},
	}
}
