package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all run flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "freehit run",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all run flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Provider flags
	flags.StringP("provider", "p", string(ProviderGemini), "Model provider: Gemini, Gemma or Groq")
	flags.String("api-key", "", "API key (defaults to GEMINI_API_KEY or GOOGLE_API_KEY; ADC is used when empty)")
	flags.String("base-url", "", "Override the provider API base URL")
	flags.String("api-version", "", "Override the provider API version")

	// Loop control flags
	flags.Int("threshold", DefaultThreshold, "Consecutive rate-limit failures before stopping")
	flags.String("on-error", OnErrorRetry, "Handling of other errors: retry, rotate or rotate-count")
	flags.Duration("error-backoff", DefaultErrorBackoff, "Pause after an other error (0 disables)")
	flags.Bool("reset-on-success", false, "Reset the consecutive failure count after a success")
	flags.Bool("self-test", false, "Invoke every active model once before the main loop")
	flags.IntP("max-invocations", "n", 0, "Stop after this many invocations (0 means unlimited)")
	flags.IntP("rate", "r", 0, "Invocations per minute limit (0 means unlimited)")
	flags.Duration("timeout", 0, "Per-invocation timeout (0 means none)")
	flags.Int64("seed", 0, "Prompt selection seed (0 means time-based)")

	// Output flags
	flags.StringP("output-dir", "o", DefaultOutputDir, "Directory for the usage snapshot (env OUTPUT_DIR)")
	flags.Bool("json-output", false, "Emit JSON formatted report")
	flags.Bool("progress", false, "Show a live progress line on stderr")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.String("log-file", "", "Also write logs to this file")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
	flags.String("env-file", DefaultEnvFile, "Dotenv file loaded before reading the environment")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP endpoint for spans (env OTEL_EXPORTER_OTLP_ENDPOINT)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "", "Service name reported with spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of invocations traced")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values from the config file and environment.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("provider") {
		val, err := fs.GetString("provider")
		if err != nil {
			return err
		}
		cfg.Provider = Provider(strings.TrimSpace(val))
	}
	stringFlags := map[string]*string{
		"api-key":              &cfg.APIKey,
		"base-url":             &cfg.BaseURL,
		"api-version":          &cfg.APIVersion,
		"on-error":             &cfg.OnError,
		"output-dir":           &cfg.OutputDir,
		"log-level":            &cfg.LogLevel,
		"log-format":           &cfg.LogFormat,
		"log-file":             &cfg.LogFile,
		"tracing-endpoint":     &cfg.Tracing.Endpoint,
		"tracing-protocol":     &cfg.Tracing.Protocol,
		"tracing-service-name": &cfg.Tracing.ServiceName,
	}
	for name, dst := range stringFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(val)
	}

	intFlags := map[string]*int{
		"threshold":       &cfg.Threshold,
		"max-invocations": &cfg.MaxInvocations,
		"rate":            &cfg.Rate,
	}
	for name, dst := range intFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	durationFlags := map[string]*time.Duration{
		"error-backoff": &cfg.ErrorBackoff,
		"timeout":       &cfg.Timeout,
	}
	for name, dst := range durationFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	boolFlags := map[string]*bool{
		"reset-on-success": &cfg.ResetOnSuccess,
		"self-test":        &cfg.SelfTest,
		"json-output":      &cfg.JSONOutput,
		"progress":         &cfg.Progress,
		"tracing-insecure": &cfg.Tracing.Insecure,
	}
	for name, dst := range boolFlags {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	return nil
}
