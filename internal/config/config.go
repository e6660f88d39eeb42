// Package config resolves the probe configuration from defaults, an optional
// config file, the environment and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Provider selects the hosted model family to probe.
type Provider string

const (
	ProviderGemini Provider = "Gemini"
	ProviderGemma  Provider = "Gemma"
	ProviderGroq   Provider = "Groq"
)

// Providers lists every recognised provider.
var Providers = []Provider{ProviderGemini, ProviderGemma, ProviderGroq}

// ParseProvider matches a provider name case-insensitively.
func ParseProvider(value string) (Provider, error) {
	value = strings.TrimSpace(value)
	for _, p := range Providers {
		if strings.EqualFold(string(p), value) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q (want Gemini, Gemma or Groq)", value)
}

// Implemented reports whether the provider has a client.
func (p Provider) Implemented() bool {
	return p == ProviderGemini || p == ProviderGemma
}

// Error policies accepted by --on-error.
const (
	OnErrorRetry       = "retry"
	OnErrorRotate      = "rotate"
	OnErrorRotateCount = "rotate-count"
)

// Defaults.
const (
	DefaultOutputDir    = "output"
	DefaultThreshold    = 25
	DefaultErrorBackoff = time.Second
	DefaultEnvFile      = ".env"
)

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Endpoint    string
	Protocol    string // grpc or http
	ServiceName string
	SampleRate  float64
	Insecure    bool
}

// Config is the resolved run configuration.
type Config struct {
	Provider       Provider
	OutputDir      string
	Threshold      int
	OnError        string
	ErrorBackoff   time.Duration
	ResetOnSuccess bool
	SelfTest       bool
	MaxInvocations int
	Rate           int           // invocations per minute, 0 means unlimited
	Timeout        time.Duration // per-call timeout, 0 means none
	Seed           int64         // prompt selection seed, 0 means time-based
	APIKey         string
	BaseURL        string
	APIVersion     string
	LogLevel       string
	LogFormat      string
	LogFile        string
	JSONOutput     bool
	Progress       bool
	EnvFile        string
	ConfigFile     string
	Tracing        TracingConfig
}

// ValidationError aggregates every configuration issue found.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if _, err := ParseProvider(string(c.Provider)); err != nil {
		issues = append(issues, err.Error())
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		issues = append(issues, "output directory must not be empty")
	}
	if c.Threshold <= 0 {
		issues = append(issues, "threshold must be greater than zero")
	}
	switch c.OnError {
	case OnErrorRetry, OnErrorRotate, OnErrorRotateCount:
	default:
		issues = append(issues, fmt.Sprintf("on-error %q is not supported (want retry, rotate or rotate-count)", c.OnError))
	}
	if c.ErrorBackoff < 0 {
		issues = append(issues, "error backoff must be non-negative")
	}
	if c.MaxInvocations < 0 {
		issues = append(issues, "max invocations must be non-negative")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be non-negative")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be non-negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log level %q is not supported", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log format %q is not supported (want console or json)", c.LogFormat))
	}
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (want grpc or http)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
