// Package metrics aggregates invocation outcomes and latencies for a probe
// run, overall and per model.
//
// The runner records every invocation:
//
//	collector := metrics.NewCollector()
//	collector.Record("gemini-2.0-flash", llm.KindRateLimited, latency)
//
//	stats := collector.Stats(elapsed)
//
// Latency percentiles come from HDR histograms tracking 1µs to 5 minutes.
// A Collector is safe for concurrent use.
package metrics
