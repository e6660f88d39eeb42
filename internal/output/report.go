package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/torosent/freehit/internal/catalog"
	"github.com/torosent/freehit/internal/metrics"
	"github.com/torosent/freehit/internal/runner"
)

// Report is everything known about a finished run.
type Report struct {
	RunID        string               `json:"run_id"`
	Provider     string               `json:"provider"`
	Result       runner.Result        `json:"result"`
	Stats        metrics.Stats        `json:"stats"`
	Snapshot     []catalog.Descriptor `json:"snapshot"`
	SnapshotPath string               `json:"snapshot_path,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, r Report) {
	res := r.Result
	fmt.Fprintln(w, "\n--- Usage Probe Results ---")
	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", r.RunID)
	}
	fmt.Fprintf(w, "Provider:          %s\n", r.Provider)
	fmt.Fprintf(w, "Stop Reason:       %s\n", res.Reason)
	if r.Error != "" {
		fmt.Fprintf(w, "Error:             %s\n", r.Error)
	}
	fmt.Fprintf(w, "Invocations:       %d\n", res.Invocations)
	fmt.Fprintf(w, "Successful:        %d\n", res.Successes)
	fmt.Fprintf(w, "Rate Limited:      %d\n", res.RateLimited)
	fmt.Fprintf(w, "Not Found:         %d\n", res.NotFound)
	fmt.Fprintf(w, "Other Errors:      %d\n", res.Other)
	fmt.Fprintf(w, "Consecutive Fails: %d\n", res.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", res.Duration)
	fmt.Fprintf(w, "Invocations/min:   %.2f\n", r.Stats.InvocationsPerMin)

	if r.Stats.Total > 0 {
		l := r.Stats.Latency
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Min:             %s\n", l.Min)
		fmt.Fprintf(w, "  Max:             %s\n", l.Max)
		fmt.Fprintf(w, "  Mean:            %s\n", l.Mean)
		fmt.Fprintf(w, "  P50:             %s\n", l.P50)
		fmt.Fprintf(w, "  P90:             %s\n", l.P90)
		fmt.Fprintf(w, "  P99:             %s\n", l.P99)
	}

	if len(r.Stats.Models) > 0 {
		fmt.Fprintln(w, "\nModel Breakdown:")
		for _, m := range metrics.BusiestModels(r.Stats.Models) {
			share := 0.0
			if r.Stats.Total > 0 {
				share = (float64(m.Invocations) / float64(r.Stats.Total)) * 100
			}
			fmt.Fprintf(
				w,
				"  - %s: total=%d (%.1f%%), successes=%d, rate_limited=%d, not_found=%d, other=%d, p99=%s\n",
				m.Model,
				m.Invocations,
				share,
				m.Successes,
				m.RateLimited,
				m.NotFound,
				m.Other,
				m.Latency.P99,
			)
		}
	}

	if rows := metrics.FlattenOutcomes(r.Stats.Models); len(rows) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, row := range rows {
			fmt.Fprintf(w, "  %s %s: %d\n", row.Model, metrics.FriendlyOutcomeName(row.Outcome), row.Count)
		}
	}

	if len(r.Snapshot) > 0 {
		fmt.Fprintln(w, "\nUsage Snapshot:")
		for _, d := range r.Snapshot {
			state := "active"
			if !d.Active {
				state = "inactive"
			}
			fmt.Fprintf(w, "  %-40s %-9s %d\n", d.Name, state, d.Count)
		}
		if r.SnapshotPath != "" {
			fmt.Fprintf(w, "Written to %s\n", r.SnapshotPath)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
