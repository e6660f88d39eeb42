package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// fileSetting binds one config file key, written in snake_case, to a Config
// field. Files may also spell the key kebab-case or without separators.
type fileSetting struct {
	name  string
	apply func(cfg *Config, raw interface{}) error
}

var fileSettings = []fileSetting{
	{"provider", stringSetting(func(c *Config) *string { return (*string)(&c.Provider) })},
	{"output_dir", stringSetting(func(c *Config) *string { return &c.OutputDir })},
	{"on_error", stringSetting(func(c *Config) *string { return &c.OnError })},
	{"api_key", stringSetting(func(c *Config) *string { return &c.APIKey })},
	{"base_url", stringSetting(func(c *Config) *string { return &c.BaseURL })},
	{"api_version", stringSetting(func(c *Config) *string { return &c.APIVersion })},
	{"log_level", stringSetting(func(c *Config) *string { return &c.LogLevel })},
	{"log_format", stringSetting(func(c *Config) *string { return &c.LogFormat })},
	{"log_file", stringSetting(func(c *Config) *string { return &c.LogFile })},
	{"threshold", intSetting(func(c *Config) *int { return &c.Threshold })},
	{"max_invocations", intSetting(func(c *Config) *int { return &c.MaxInvocations })},
	{"rate", intSetting(func(c *Config) *int { return &c.Rate })},
	{"seed", func(c *Config, raw interface{}) (err error) {
		c.Seed, err = cast.ToInt64E(raw)
		return err
	}},
	{"error_backoff", durationSetting(func(c *Config) *time.Duration { return &c.ErrorBackoff })},
	{"timeout", durationSetting(func(c *Config) *time.Duration { return &c.Timeout })},
	{"reset_on_success", boolSetting(func(c *Config) *bool { return &c.ResetOnSuccess })},
	{"self_test", boolSetting(func(c *Config) *bool { return &c.SelfTest })},
	{"json_output", boolSetting(func(c *Config) *bool { return &c.JSONOutput })},
	{"progress", boolSetting(func(c *Config) *bool { return &c.Progress })},
	{"tracing", func(c *Config, raw interface{}) (err error) {
		c.Tracing, err = parseTracingConfig(raw, c.Tracing)
		return err
	}},
}

// applyConfigSettings applies settings read from a config file.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	for _, s := range fileSettings {
		raw, ok := setting(settings, s.name)
		if !ok {
			continue
		}
		if err := s.apply(cfg, raw); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func parseTracingConfig(value interface{}, base TracingConfig) (TracingConfig, error) {
	settings, err := cast.ToStringMapE(value)
	if err != nil {
		return TracingConfig{}, err
	}
	out := base
	if raw, ok := setting(settings, "endpoint"); ok {
		out.Endpoint = strings.TrimSpace(cast.ToString(raw))
	}
	if raw, ok := setting(settings, "protocol"); ok {
		out.Protocol = strings.TrimSpace(cast.ToString(raw))
	}
	if raw, ok := setting(settings, "service_name"); ok {
		out.ServiceName = strings.TrimSpace(cast.ToString(raw))
	}
	if raw, ok := setting(settings, "sample_rate"); ok {
		if out.SampleRate, err = cast.ToFloat64E(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
	}
	if raw, ok := setting(settings, "insecure"); ok {
		if out.Insecure, err = cast.ToBoolE(raw); err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
	}
	return out, nil
}

// setting looks name up under its snake, kebab and joined spellings.
func setting(settings map[string]interface{}, name string) (interface{}, bool) {
	for _, key := range []string{
		name,
		strings.ReplaceAll(name, "_", "-"),
		strings.ReplaceAll(name, "_", ""),
	} {
		if val, ok := settings[key]; ok {
			return val, true
		}
	}
	return nil, false
}

func stringSetting(field func(*Config) *string) func(*Config, interface{}) error {
	return func(c *Config, raw interface{}) error {
		val, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		*field(c) = strings.TrimSpace(val)
		return nil
	}
}

func intSetting(field func(*Config) *int) func(*Config, interface{}) error {
	return func(c *Config, raw interface{}) error {
		val, err := cast.ToIntE(raw)
		if err != nil {
			return err
		}
		*field(c) = val
		return nil
	}
}

func boolSetting(field func(*Config) *bool) func(*Config, interface{}) error {
	return func(c *Config, raw interface{}) error {
		val, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		*field(c) = val
		return nil
	}
}

func durationSetting(field func(*Config) *time.Duration) func(*Config, interface{}) error {
	return func(c *Config, raw interface{}) error {
		val, err := fileDuration(raw)
		if err != nil {
			return err
		}
		*field(c) = val
		return nil
	}
}

// fileDuration parses Go duration strings. Bare numbers are seconds.
func fileDuration(raw interface{}) (time.Duration, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		return time.ParseDuration(v)
	}
	secs, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}
