package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment variables consulted after the config file.
const (
	EnvOutputDir    = "OUTPUT_DIR"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
)

// Loader handles loading configuration from files, the environment and
// command-line arguments.
type Loader struct {
	getenv func(string) string
}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader reading the process environment.
func NewLoader() *Loader {
	return &Loader{getenv: os.Getenv}
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Provider:     ProviderGemini,
		OutputDir:    DefaultOutputDir,
		Threshold:    DefaultThreshold,
		OnError:      OnErrorRetry,
		ErrorBackoff: DefaultErrorBackoff,
		LogLevel:     "info",
		LogFormat:    "console",
		EnvFile:      DefaultEnvFile,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

// Load parses command-line arguments and configuration files to produce a
// Config. Precedence, lowest first: defaults, config file, environment
// (including the dotenv file), flags.
func (l *Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(extra, " "))
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	envFile := flagSet.Lookup("env-file").Value.String()
	if err := l.applyEnvironment(&cfg, envFile, flagSet.Changed("env-file")); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	if p, err := ParseProvider(string(cfg.Provider)); err == nil {
		cfg.Provider = p
	}
	cfg.OnError = strings.ToLower(strings.TrimSpace(cfg.OnError))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(cfg.Tracing.Protocol))

	return &cfg, nil
}

// applyEnvironment reads the dotenv file and the process environment. Process
// variables win over the dotenv file. A missing dotenv file is only an error
// when it was named explicitly.
func (l *Loader) applyEnvironment(cfg *Config, envFile string, explicit bool) error {
	dotenv := map[string]string{}
	if strings.TrimSpace(envFile) != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = values
			cfg.EnvFile = envFile
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return fmt.Errorf("env file %s: %w", envFile, err)
		}
	}

	getenv := func(key string) string {
		if l.getenv != nil {
			if v := strings.TrimSpace(l.getenv(key)); v != "" {
				return v
			}
		}
		return strings.TrimSpace(dotenv[key])
	}

	if v := getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	for _, key := range []string{EnvGeminiAPIKey, EnvGoogleAPIKey} {
		if v := getenv(key); v != "" {
			cfg.APIKey = v
			break
		}
	}
	return nil
}
