package runner

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/freehit/internal/catalog"
	"github.com/torosent/freehit/internal/llm"
	"github.com/torosent/freehit/internal/metrics"
	"github.com/torosent/freehit/internal/prompt"
)

// DefaultThreshold is the number of consecutive rate-limit failures that ends
// a run.
const DefaultThreshold = 25

// Snapshotter persists a full registry snapshot, replacing the previous one.
type Snapshotter interface {
	Save(snapshot []catalog.Descriptor) error
}

// ErrorPolicy decides what an OTHER_ERROR outcome does to the rotation.
type ErrorPolicy string

const (
	// PolicyRetry keeps the same model and does not count a failure.
	PolicyRetry ErrorPolicy = "retry"
	// PolicyRotate advances to the next model without counting a failure.
	PolicyRotate ErrorPolicy = "rotate"
	// PolicyRotateCount advances and counts toward the threshold.
	PolicyRotateCount ErrorPolicy = "rotate-count"
)

// ParseErrorPolicy parses a policy name. An empty string is PolicyRetry.
func ParseErrorPolicy(value string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyRetry:
		return PolicyRetry, nil
	case PolicyRotate:
		return PolicyRotate, nil
	case PolicyRotateCount:
		return PolicyRotateCount, nil
	}
	return "", fmt.Errorf("unknown error policy %q (want retry, rotate or rotate-count)", value)
}

// Options configure the Runner.
type Options struct {
	Registry       *catalog.Registry // candidate models (required)
	Factory        llm.Factory       // builds one client per model (required)
	Store          Snapshotter       // snapshot persistence (required)
	Prompts        func() string     // prompt source, defaults to prompt.Random
	Provider       string            // provider name for logs and spans
	Threshold      int               // consecutive rate-limit failures before stopping
	OnError        ErrorPolicy       // handling of other errors
	ErrorBackoff   time.Duration     // pause after an other error (0 disables)
	ResetOnSuccess bool              // reset the failure count after a success
	SelfTest       bool              // probe every active model once before the loop
	MaxInvocations int               // stop after this many invocations (0 means unlimited)
	RatePerMinute  int               // invocation pacing (0 means unlimited)
	Logger         *zap.Logger
	Tracer         trace.Tracer
	Collector      *metrics.Collector
	LimiterFactory func(perMinute int) *rate.Limiter // optional injection for tests
}

func (o *Options) validate() error {
	var issues []string
	if o.Registry == nil {
		issues = append(issues, "registry is required")
	}
	if o.Factory == nil {
		issues = append(issues, "client factory is required")
	}
	if o.Store == nil {
		issues = append(issues, "snapshot store is required")
	}
	if _, err := ParseErrorPolicy(string(o.OnError)); err != nil {
		issues = append(issues, err.Error())
	}
	if len(issues) > 0 {
		return fmt.Errorf("runner: %s", strings.Join(issues, "; "))
	}
	return nil
}

func (o *Options) normalize() {
	if o.Prompts == nil {
		o.Prompts = prompt.Random
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	o.OnError, _ = ParseErrorPolicy(string(o.OnError))
	if o.ErrorBackoff < 0 {
		o.ErrorBackoff = 0
	}
	if o.MaxInvocations < 0 {
		o.MaxInvocations = 0
	}
	if o.RatePerMinute < 0 {
		o.RatePerMinute = 0
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(perMinute int) *rate.Limiter {
			if perMinute <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}
