package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestSettingSpellings(t *testing.T) {
	for _, key := range []string{"max_invocations", "max-invocations", "maxinvocations"} {
		got, ok := setting(map[string]interface{}{key: 3}, "max_invocations")
		if !ok || got != 3 {
			t.Errorf("setting(%q) = %v, %v", key, got, ok)
		}
	}
	if _, ok := setting(map[string]interface{}{"max": 3}, "max_invocations"); ok {
		t.Error("unexpected match for unrelated key")
	}
}

func TestFileDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{" 250ms ", 250 * time.Millisecond},
		{10, 10 * time.Second},
		{1.5, 1500 * time.Millisecond},
		{"", 0},
	}

	for _, tt := range tests {
		got, err := fileDuration(tt.input)
		if err != nil {
			t.Errorf("fileDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("fileDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if _, err := fileDuration("soon"); err == nil {
		t.Error("expected error for unparsable duration")
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Defaults()
	settings := map[string]interface{}{
		"provider":         "gemma",
		"output_dir":       "/tmp/usage",
		"threshold":        10,
		"on_error":         "rotate",
		"error_backoff":    "250ms",
		"reset_on_success": true,
		"self-test":        "true",
		"maxinvocations":   "100",
		"rate":             30,
		"timeout":          45,
		"seed":             7,
		"log_level":        "debug",
		"tracing": map[string]interface{}{
			"endpoint":    "localhost:4317",
			"sample_rate": 0.5,
			"insecure":    true,
		},
	}

	if err := applyConfigSettings(&cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.Provider != "gemma" {
		t.Errorf("Provider = %q, want raw gemma before normalisation", cfg.Provider)
	}
	if cfg.OutputDir != "/tmp/usage" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Threshold != 10 || cfg.MaxInvocations != 100 || cfg.Rate != 30 || cfg.Seed != 7 {
		t.Errorf("ints = %d %d %d %d", cfg.Threshold, cfg.MaxInvocations, cfg.Rate, cfg.Seed)
	}
	if cfg.OnError != OnErrorRotate {
		t.Errorf("OnError = %q", cfg.OnError)
	}
	if cfg.ErrorBackoff != 250*time.Millisecond || cfg.Timeout != 45*time.Second {
		t.Errorf("durations = %s %s", cfg.ErrorBackoff, cfg.Timeout)
	}
	if !cfg.ResetOnSuccess || !cfg.SelfTest {
		t.Errorf("bools = %v %v", cfg.ResetOnSuccess, cfg.SelfTest)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.SampleRate != 0.5 || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Errorf("tracing protocol default lost: %q", cfg.Tracing.Protocol)
	}
}

func TestApplyConfigSettingsErrors(t *testing.T) {
	tests := map[string]map[string]interface{}{
		"threshold": {"threshold": "many"},
		"timeout":   {"timeout": "soon"},
		"self_test": {"self_test": "maybe"},
		"tracing":   {"tracing": "on"},
	}
	for name, settings := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			if err := applyConfigSettings(&cfg, settings); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--provider=Gemma",
		"--threshold=3",
		"--on-error=rotate-count",
		"--error-backoff=0",
		"--self-test",
		"-n", "12",
		"--rate=60",
		"--output-dir= out ",
		"--tracing-sample-rate=0.25",
		"--seed=42",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(&cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.Provider != ProviderGemma {
		t.Errorf("Provider = %q", cfg.Provider)
	}
	if cfg.Threshold != 3 || cfg.MaxInvocations != 12 || cfg.Rate != 60 {
		t.Errorf("ints = %d %d %d", cfg.Threshold, cfg.MaxInvocations, cfg.Rate)
	}
	if cfg.OnError != OnErrorRotateCount || cfg.ErrorBackoff != 0 || !cfg.SelfTest {
		t.Errorf("loop flags = %q %s %v", cfg.OnError, cfg.ErrorBackoff, cfg.SelfTest)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Tracing.SampleRate != 0.25 || cfg.Seed != 42 {
		t.Errorf("sample rate %v seed %d", cfg.Tracing.SampleRate, cfg.Seed)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unchanged flag overrode LogLevel: %q", cfg.LogLevel)
	}
}

func TestLoaderEnvironmentPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("OUTPUT_DIR=from-dotenv\nGOOGLE_API_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := map[string]string{}
	loader := &Loader{getenv: func(k string) string { return env[k] }}

	cfg, err := loader.Load([]string{"--env-file", envFile})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "from-dotenv" || cfg.APIKey != "dotenv-key" {
		t.Errorf("dotenv values not applied: %q %q", cfg.OutputDir, cfg.APIKey)
	}

	env["OUTPUT_DIR"] = "from-env"
	env["GEMINI_API_KEY"] = "env-key"
	cfg, err = loader.Load([]string{"--env-file", envFile})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "from-env" || cfg.APIKey != "env-key" {
		t.Errorf("process env should win: %q %q", cfg.OutputDir, cfg.APIKey)
	}

	cfg, err = loader.Load([]string{"--env-file", envFile, "--output-dir", "from-flag"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "from-flag" {
		t.Errorf("flag should win: %q", cfg.OutputDir)
	}
}

func TestLoaderMissingEnvFile(t *testing.T) {
	loader := &Loader{getenv: func(string) string { return "" }}
	missing := filepath.Join(t.TempDir(), "absent.env")

	if _, err := loader.Load([]string{"--env-file", missing}); err == nil {
		t.Fatal("expected error for explicitly named missing env file")
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := loader.Load(nil); err != nil {
		t.Fatalf("default .env may be absent, got %v", err)
	}
}
