package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/freehit/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		collector: collector,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer)
		return
	}
	p.ticker.Stop()
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, "\r"+ProgressLine(p.collector.Stats(time.Since(p.start))))
		case <-p.done:
			return
		}
	}
}

// ProgressLine renders a one-line status for stats.
func ProgressLine(stats metrics.Stats) string {
	line := fmt.Sprintf("Invocations: %d | Successes: %d | Rate limited: %d | Per min: %.1f",
		stats.Total, stats.Successes, stats.Outcomes[metrics.OutcomeRateLimited], stats.InvocationsPerMin)
	if busiest := metrics.BusiestModels(stats.Models); len(busiest) > 0 && stats.Total > 0 {
		top := busiest[0]
		share := (float64(top.Invocations) / float64(stats.Total)) * 100
		line += fmt.Sprintf(" | Top model: %s (%.0f%%, P99 %.1fms)", top.Model, share, top.Latency.P99Ms)
	}
	return line
}
