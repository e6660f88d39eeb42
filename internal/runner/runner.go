package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/freehit/internal/catalog"
	"github.com/torosent/freehit/internal/llm"
)

var (
	// ErrNoActiveModels is returned when every descriptor has been
	// deactivated.
	ErrNoActiveModels = errors.New("no active models")
	// ErrFatal wraps client construction failures.
	ErrFatal = errors.New("fatal client error")
)

// Reason names why a run stopped.
type Reason string

const (
	ReasonThreshold      Reason = "threshold"
	ReasonNoActiveModels Reason = "no-active-models"
	ReasonCanceled       Reason = "canceled"
	ReasonFatal          Reason = "fatal"
	ReasonLimit          Reason = "limit"
)

// Result captures execution summary.
type Result struct {
	Invocations int           `json:"invocations"`
	Successes   int           `json:"successes"`
	RateLimited int           `json:"rate_limited"`
	NotFound    int           `json:"not_found"`
	Other       int           `json:"other"`
	Failures    int           `json:"consecutive_failures"`
	Index       int           `json:"index"`
	Reason      Reason        `json:"reason"`
	Duration    time.Duration `json:"-"`
}

// Runner owns a registry for the duration of one run. It is not safe for
// concurrent use.
type Runner struct {
	opt     Options
	reg     *catalog.Registry
	limiter *rate.Limiter
	clients map[string]llm.Client
	log     *zap.Logger

	index         int
	failures      int
	result        Result
	persistFailed bool
}

// New validates opt and returns a Runner.
func New(opt Options) (*Runner, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	opt.normalize()
	log := opt.Logger
	if opt.Provider != "" {
		log = log.With(zap.String("provider", opt.Provider))
	}
	return &Runner{
		opt:     opt,
		reg:     opt.Registry,
		limiter: opt.LimiterFactory(opt.RatePerMinute),
		clients: make(map[string]llm.Client, opt.Registry.Len()),
		log:     log,
	}, nil
}

// Run executes the loop until a stop condition. The final snapshot is
// persisted on every stop; a persistence failure is returned even when the
// run otherwise ended cleanly.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	reason, err := r.loop(ctx)

	r.result.Reason = reason
	r.result.Failures = r.failures
	r.result.Index = r.index
	r.result.Duration = time.Since(start)

	if !r.persistFailed {
		if perr := r.persist(); perr != nil {
			err = errors.Join(err, perr)
		}
	}
	r.log.Info("run stopped",
		zap.String("reason", string(reason)),
		zap.Int("invocations", r.result.Invocations),
		zap.Int("successes", r.result.Successes),
		zap.Int("consecutive_failures", r.failures),
		zap.Duration("duration", r.result.Duration),
	)
	return r.result, err
}

func (r *Runner) loop(ctx context.Context) (Reason, error) {
	if r.opt.SelfTest {
		if reason, err := r.selfTest(ctx); reason != "" {
			return reason, err
		}
	}

	n := r.reg.Len()
	for {
		if ctx.Err() != nil {
			return ReasonCanceled, nil
		}
		if r.opt.MaxInvocations > 0 && r.result.Invocations >= r.opt.MaxInvocations {
			return ReasonLimit, nil
		}

		// SELECT
		if r.reg.ActiveCount() == 0 {
			return ReasonNoActiveModels, ErrNoActiveModels
		}
		for !r.reg.At(r.index).Active {
			r.index = (r.index + 1) % n
		}
		desc := r.reg.At(r.index)

		// INVOKE
		kind, err := r.invoke(ctx, desc.Name)
		if err != nil {
			if errors.Is(err, ErrFatal) {
				return ReasonFatal, err
			}
			return ReasonCanceled, nil
		}

		switch kind {
		case llm.KindNone:
			count := r.reg.IncrementAt(r.index)
			if r.opt.ResetOnSuccess {
				r.failures = 0
			}
			r.log.Info("invocation succeeded", zap.String("model", desc.Name), zap.Int("count", count))
			if err := r.persist(); err != nil {
				return ReasonFatal, err
			}
		case llm.KindRateLimited:
			r.index = (r.index + 1) % n
			r.failures++
			r.log.Warn("rate limited, rotating",
				zap.String("model", desc.Name),
				zap.Int("consecutive_failures", r.failures),
				zap.Int("threshold", r.opt.Threshold),
			)
			if r.failures >= r.opt.Threshold {
				return ReasonThreshold, nil
			}
		case llm.KindNotFound:
			if err := r.reg.Deactivate(desc.Name); err != nil {
				return ReasonFatal, err
			}
			r.log.Warn("model not found, deactivated", zap.String("model", desc.Name))
		default:
			switch r.opt.OnError {
			case PolicyRotate:
				r.index = (r.index + 1) % n
			case PolicyRotateCount:
				r.index = (r.index + 1) % n
				r.failures++
				if r.failures >= r.opt.Threshold {
					return ReasonThreshold, nil
				}
			}
			if err := sleep(ctx, r.opt.ErrorBackoff); err != nil {
				return ReasonCanceled, nil
			}
		}
	}
}

// selfTest invokes every active descriptor once. A non-empty reason ends the
// run.
func (r *Runner) selfTest(ctx context.Context) (Reason, error) {
	r.log.Info("self-test started", zap.Int("active_models", r.reg.ActiveCount()))
	for i := 0; i < r.reg.Len(); i++ {
		desc := r.reg.At(i)
		if !desc.Active {
			continue
		}
		kind, err := r.invoke(ctx, desc.Name)
		if err != nil {
			if errors.Is(err, ErrFatal) {
				return ReasonFatal, err
			}
			return ReasonCanceled, nil
		}
		switch kind {
		case llm.KindNone:
			r.reg.IncrementAt(i)
		case llm.KindRateLimited:
			r.log.Warn("self-test: model rate limited", zap.String("model", desc.Name))
		case llm.KindNotFound:
			if err := r.reg.Deactivate(desc.Name); err != nil {
				return ReasonFatal, err
			}
			r.log.Warn("self-test: model not found, deactivated", zap.String("model", desc.Name))
		}
	}
	if err := r.persist(); err != nil {
		return ReasonFatal, err
	}
	r.log.Info("self-test finished", zap.Int("active_models", r.reg.ActiveCount()))
	return "", nil
}

// invoke performs one paced invocation of model and classifies its outcome.
// The returned error is non-nil only for fatal construction failures and
// cancellation.
func (r *Runner) invoke(ctx context.Context, model string) (llm.Kind, error) {
	client, err := r.client(model)
	if err != nil {
		r.log.Error("client construction failed", zap.String("model", model), zap.Error(err))
		return llm.KindOther, fmt.Errorf("%w: model %s: %w", ErrFatal, model, err)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return llm.KindOther, err
	}

	_, err = client.Invoke(ctx, r.opt.Prompts())
	if err != nil && ctx.Err() != nil {
		return llm.KindOther, ctx.Err()
	}

	kind := llm.Classify(err)
	r.result.Invocations++
	switch kind {
	case llm.KindNone:
		r.result.Successes++
	case llm.KindRateLimited:
		r.result.RateLimited++
	case llm.KindNotFound:
		r.result.NotFound++
	default:
		r.result.Other++
	}
	return kind, nil
}

func (r *Runner) client(model string) (llm.Client, error) {
	if c, ok := r.clients[model]; ok {
		return c, nil
	}
	c, err := r.opt.Factory.NewClient(model)
	if err != nil {
		return nil, err
	}
	c = Chain(c,
		WithTracing(r.opt.Tracer, r.opt.Provider),
		WithMetrics(r.opt.Collector),
		WithLogging(r.log),
	)
	r.clients[model] = c
	return c, nil
}

func (r *Runner) persist() error {
	if err := r.opt.Store.Save(r.reg.Snapshot()); err != nil {
		r.persistFailed = true
		r.log.Error("snapshot write failed", zap.Error(err))
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
