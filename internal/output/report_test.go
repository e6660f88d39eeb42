package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/torosent/freehit/internal/catalog"
	"github.com/torosent/freehit/internal/llm"
	"github.com/torosent/freehit/internal/metrics"
	"github.com/torosent/freehit/internal/runner"
)

func sampleReport() Report {
	collector := metrics.NewCollector()
	collector.Record("gemini-2.0-flash", llm.KindNone, 30*time.Millisecond)
	collector.Record("gemini-2.0-flash", llm.KindRateLimited, 5*time.Millisecond)
	collector.Record("gemini-1.5-pro", llm.KindNotFound, 5*time.Millisecond)
	return Report{
		RunID:    "01J0000000000000000000TEST",
		Provider: "Gemini",
		Result: runner.Result{
			Invocations: 3,
			Successes:   1,
			RateLimited: 1,
			NotFound:    1,
			Failures:    1,
			Reason:      runner.ReasonThreshold,
			Duration:    2 * time.Second,
		},
		Stats: collector.Stats(2 * time.Second),
		Snapshot: []catalog.Descriptor{
			{Name: "gemini-2.0-flash", Active: true, Count: 1},
			{Name: "gemini-1.5-pro", Active: false},
		},
		SnapshotPath: "output/gemini_usage.csv",
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport())
	out := buf.String()

	for _, want := range []string{
		"Run ID:            01J0000000000000000000TEST",
		"Stop Reason:       threshold",
		"Invocations:       3",
		"Rate Limited:      1",
		"Model Breakdown:",
		"gemini-2.0-flash: total=2 (66.7%)",
		"gemini-1.5-pro Model not found: 1",
		"gemini-2.0-flash Rate limited: 1",
		"inactive",
		"Written to output/gemini_usage.csv",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportWithoutInvocations(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, Report{Provider: "Gemma", Result: runner.Result{Reason: runner.ReasonNoActiveModels}, Error: "no active models"})
	out := buf.String()
	if strings.Contains(out, "Latency:") || strings.Contains(out, "Model Breakdown") {
		t.Errorf("empty run should not print latency or models:\n%s", out)
	}
	if !strings.Contains(out, "Error:             no active models") {
		t.Errorf("missing error line:\n%s", out)
	}
}

func TestPrintJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSONReport(&buf, sampleReport()); err != nil {
		t.Fatalf("PrintJSONReport() error = %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded["provider"] != "Gemini" {
		t.Errorf("provider = %v", decoded["provider"])
	}
	result := decoded["result"].(map[string]interface{})
	if result["reason"] != "threshold" {
		t.Errorf("reason = %v", result["reason"])
	}
	if snap := decoded["snapshot"].([]interface{}); len(snap) != 2 {
		t.Errorf("snapshot rows = %d", len(snap))
	}
}
