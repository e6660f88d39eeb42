package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/freehit/internal/llm"
)

// Outcome names used in Stats.Outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = string(llm.KindRateLimited)
	OutcomeNotFound    = string(llm.KindNotFound)
	OutcomeOther       = string(llm.KindOther)
)

// highestLatencyUs bounds recorded latencies; slow generations can take
// minutes.
const highestLatencyUs = int64(5 * time.Minute / time.Microsecond)

// Collector records per-invocation outcomes in a thread-safe manner.
type Collector struct {
	mu     sync.Mutex
	total  *series
	models map[string]*series
	order  []string
}

type series struct {
	hist        *hdrhistogram.Histogram
	invocations int64
	successes   int64
	rateLimited int64
	notFound    int64
	other       int64
	minLatency  time.Duration
	maxLatency  time.Duration
	sumLatency  time.Duration
}

func newSeries() *series {
	return &series{hist: hdrhistogram.New(1, highestLatencyUs, 3)}
}

// Stats represents aggregated metrics.
type Stats struct {
	Total             int64          `json:"total"`
	Successes         int64          `json:"successes"`
	Failures          int64          `json:"failures"`
	Outcomes          map[string]int `json:"outcomes,omitempty"`
	Latency           Latency        `json:"latency"`
	Duration          time.Duration  `json:"-"`
	DurationMs        float64        `json:"duration_ms"`
	InvocationsPerMin float64        `json:"invocations_per_min"`
	Models            []ModelStats   `json:"models,omitempty"`
}

// Latency summarises a latency distribution.
type Latency struct {
	Min  time.Duration `json:"-"`
	Max  time.Duration `json:"-"`
	Mean time.Duration `json:"-"`
	P50  time.Duration `json:"-"`
	P90  time.Duration `json:"-"`
	P99  time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// ModelStats is the breakdown for one model.
type ModelStats struct {
	Model       string  `json:"model"`
	Invocations int64   `json:"invocations"`
	Successes   int64   `json:"successes"`
	RateLimited int64   `json:"rate_limited"`
	NotFound    int64   `json:"not_found"`
	Other       int64   `json:"other"`
	Latency     Latency `json:"latency"`
}

func NewCollector() *Collector {
	return &Collector{
		total:  newSeries(),
		models: make(map[string]*series),
	}
}

// Record registers one invocation of model with its classified outcome.
func (c *Collector) Record(model string, kind llm.Kind, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.models[model]
	if !ok {
		s = newSeries()
		c.models[model] = s
		c.order = append(c.order, model)
	}
	c.total.record(kind, latency)
	s.record(kind, latency)
}

func (s *series) record(kind llm.Kind, latency time.Duration) {
	if latency > 0 {
		us := latency.Microseconds()
		if us < s.hist.LowestTrackableValue() {
			us = s.hist.LowestTrackableValue()
		}
		if us > s.hist.HighestTrackableValue() {
			us = s.hist.HighestTrackableValue()
		}
		_ = s.hist.RecordValue(us)
	}
	s.sumLatency += latency
	if s.minLatency == 0 || latency < s.minLatency {
		s.minLatency = latency
	}
	if latency > s.maxLatency {
		s.maxLatency = latency
	}

	s.invocations++
	switch kind {
	case llm.KindNone:
		s.successes++
	case llm.KindRateLimited:
		s.rateLimited++
	case llm.KindNotFound:
		s.notFound++
	default:
		s.other++
	}
}

func (s *series) latency() Latency {
	l := Latency{Min: s.minLatency, Max: s.maxLatency}
	if s.invocations > 0 {
		l.Mean = time.Duration(int64(s.sumLatency) / s.invocations)
	}
	if s.hist.TotalCount() > 0 {
		l.P50 = time.Duration(s.hist.ValueAtQuantile(50)) * time.Microsecond
		l.P90 = time.Duration(s.hist.ValueAtQuantile(90)) * time.Microsecond
		l.P99 = time.Duration(s.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	l.MinMs = toMs(l.Min)
	l.MaxMs = toMs(l.Max)
	l.MeanMs = toMs(l.Mean)
	l.P50Ms = toMs(l.P50)
	l.P90Ms = toMs(l.P90)
	l.P99Ms = toMs(l.P99)
	return l
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Stats computes and returns current aggregated statistics. Models appear in
// the order they were first invoked.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.total
	stats := Stats{
		Total:      t.invocations,
		Successes:  t.successes,
		Failures:   t.invocations - t.successes,
		Latency:    t.latency(),
		Duration:   elapsed,
		DurationMs: toMs(elapsed),
	}
	if elapsed > 0 && t.invocations > 0 {
		stats.InvocationsPerMin = float64(t.invocations) / elapsed.Minutes()
	}

	outcomes := map[string]int64{
		OutcomeSuccess:     t.successes,
		OutcomeRateLimited: t.rateLimited,
		OutcomeNotFound:    t.notFound,
		OutcomeOther:       t.other,
	}
	for k, v := range outcomes {
		if v == 0 {
			continue
		}
		if stats.Outcomes == nil {
			stats.Outcomes = make(map[string]int)
		}
		stats.Outcomes[k] = int(v)
	}

	for _, name := range c.order {
		s := c.models[name]
		stats.Models = append(stats.Models, ModelStats{
			Model:       name,
			Invocations: s.invocations,
			Successes:   s.successes,
			RateLimited: s.rateLimited,
			NotFound:    s.notFound,
			Other:       s.other,
			Latency:     s.latency(),
		})
	}
	return stats
}

// BusiestModels returns model stats sorted by descending invocation count,
// then by name.
func BusiestModels(models []ModelStats) []ModelStats {
	out := append([]ModelStats(nil), models...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Invocations == out[j].Invocations {
			return out[i].Model < out[j].Model
		}
		return out[i].Invocations > out[j].Invocations
	})
	return out
}
