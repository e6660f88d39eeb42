package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/torosent/freehit/internal/auth"
	"github.com/torosent/freehit/internal/catalog"
	"github.com/torosent/freehit/internal/config"
	"github.com/torosent/freehit/internal/store"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OUTPUT_DIR", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OTEL_EXPORTER_OTLP_ENDPOINT"} {
		t.Setenv(k, "")
	}
}

func fakeGemini(t *testing.T, status int, body string) (*httptest.Server, *int64) {
	t.Helper()
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestExecuteGroqIsNotImplemented(t *testing.T) {
	clearEnv(t)
	for _, args := range [][]string{
		{"--provider", "Groq"},
		{"run", "--provider", "groq"},
		{"models", "--provider", "Groq"},
	} {
		var stdout bytes.Buffer
		if err := execute(context.Background(), args, &stdout, io.Discard); err != nil {
			t.Fatalf("execute(%v) error = %v", args, err)
		}
		if !strings.Contains(stdout.String(), "Groq provider is not implemented yet.") {
			t.Errorf("execute(%v) output = %q", args, stdout.String())
		}
	}
}

func TestExecuteStopsAfterThreshold(t *testing.T) {
	clearEnv(t)
	server, calls := fakeGemini(t, http.StatusTooManyRequests,
		`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	outDir := filepath.Join(t.TempDir(), "out")

	var stdout bytes.Buffer
	err := execute(context.Background(), []string{
		"run",
		"--provider", "Gemma",
		"--api-key", "test-key",
		"--base-url", server.URL,
		"--output-dir", outDir,
		"--threshold", "3",
		"--json-output",
		"--log-level", "error",
		"--env-file", "",
	}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if got := atomic.LoadInt64(calls); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}

	var report struct {
		RunID  string `json:"run_id"`
		Result struct {
			Reason      string `json:"reason"`
			RateLimited int    `json:"rate_limited"`
		} `json:"result"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, stdout.String())
	}
	if report.Result.Reason != "threshold" || report.Result.RateLimited != 3 {
		t.Errorf("result = %+v", report.Result)
	}
	if len(report.RunID) != 26 {
		t.Errorf("run id %q is not a ULID", report.RunID)
	}

	snap, err := store.ReadCSV(filepath.Join(outDir, "gemma_usage.csv"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(snap) != len(catalog.Gemma) {
		t.Errorf("snapshot rows = %d, want %d", len(snap), len(catalog.Gemma))
	}
}

func TestExecuteCountsSuccesses(t *testing.T) {
	clearEnv(t)
	server, _ := fakeGemini(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"{\"response\":\"fine\"}"}]}}]}`)
	outDir := t.TempDir()
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("OUTPUT_DIR", outDir)

	var stdout bytes.Buffer
	err := execute(context.Background(), []string{
		"--base-url", server.URL,
		"--max-invocations", "2",
		"--log-level", "error",
		"--seed", "3",
	}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "Stop Reason:       limit") {
		t.Errorf("report = %s", stdout.String())
	}

	snap, err := store.ReadCSV(filepath.Join(outDir, "gemini_usage.csv"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if snap[0].Name != "gemini-2.0-flash-lite" || snap[0].Count != 2 {
		t.Errorf("first row = %+v", snap[0])
	}
}

func TestExecuteRequiresCredentials(t *testing.T) {
	clearEnv(t)
	orig := newDefaultCredentials
	t.Cleanup(func() { newDefaultCredentials = orig })
	newDefaultCredentials = func(context.Context) (auth.Provider, error) {
		return nil, errors.New("could not find default credentials")
	}

	err := execute(context.Background(), []string{"--env-file", "", "--output-dir", t.TempDir()}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("execute() error = %v, want credentials hint", err)
	}
}

func TestExecuteRejectsInvalidConfig(t *testing.T) {
	clearEnv(t)
	if err := execute(context.Background(), []string{"run", "--threshold", "0"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected validation error")
	}
	if err := execute(context.Background(), []string{"--provider", "OpenAI"}, io.Discard, io.Discard); err == nil {
		t.Fatal("expected unknown provider error")
	}
}

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	if err := execute(context.Background(), []string{"run", "--help"}, &stdout, io.Discard); err != nil {
		t.Fatalf("execute(--help) error = %v", err)
	}
}

func TestModelsCommand(t *testing.T) {
	var stdout bytes.Buffer
	if err := execute(context.Background(), []string{"models", "--provider", "gemini"}, &stdout, io.Discard); err != nil {
		t.Fatalf("execute(models) error = %v", err)
	}
	var listing catalogListing
	if err := yaml.Unmarshal(stdout.Bytes(), &listing); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, stdout.String())
	}
	if listing.Provider != "Gemini" || len(listing.Models) != len(catalog.Gemini) {
		t.Errorf("listing = %+v", listing)
	}

	stdout.Reset()
	if err := execute(context.Background(), []string{"models", "-p", "Gemma", "--format", "json"}, &stdout, io.Discard); err != nil {
		t.Fatalf("execute(models json) error = %v", err)
	}
	if err := json.Unmarshal(stdout.Bytes(), &listing); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(listing.Models) != len(catalog.Gemma) {
		t.Errorf("gemma models = %d", len(listing.Models))
	}

	if err := execute(context.Background(), []string{"models", "--format", "xml"}, io.Discard, io.Discard); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestCatalogForFollowsImplementedProviders(t *testing.T) {
	for _, p := range config.Providers {
		entries, ok := catalogFor(p)
		if ok != p.Implemented() {
			t.Errorf("catalogFor(%s) ok = %v, Implemented() = %v", p, ok, p.Implemented())
		}
		if ok && len(entries) == 0 {
			t.Errorf("catalogFor(%s) returned an empty catalog", p)
		}
	}
	if entries, _ := catalogFor(config.ProviderGemma); len(entries) != len(catalog.Gemma) {
		t.Errorf("gemma catalog has %d entries, want %d", len(entries), len(catalog.Gemma))
	}
}
