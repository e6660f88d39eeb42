package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/torosent/freehit/internal/llm"
	"github.com/torosent/freehit/internal/metrics"
	"github.com/torosent/freehit/internal/tracing"
)

// Middleware decorates a client.
type Middleware func(llm.Client) llm.Client

// Chain applies middlewares so that the first one is outermost.
func Chain(c llm.Client, mws ...Middleware) llm.Client {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			c = mws[i](c)
		}
	}
	return c
}

type clientFunc struct {
	model  string
	invoke func(ctx context.Context, prompt string) (llm.Result, error)
}

func (c clientFunc) Model() string { return c.model }

func (c clientFunc) Invoke(ctx context.Context, prompt string) (llm.Result, error) {
	return c.invoke(ctx, prompt)
}

// WithTracing wraps each invocation in a client span.
func WithTracing(tracer trace.Tracer, provider string) Middleware {
	if tracer == nil {
		return nil
	}
	return func(next llm.Client) llm.Client {
		return clientFunc{model: next.Model(), invoke: func(ctx context.Context, prompt string) (llm.Result, error) {
			ctx, span := tracing.StartInvocationSpan(ctx, tracer, provider, next.Model())
			res, err := next.Invoke(ctx, prompt)
			tracing.EndSpan(span, err, attribute.String("freehit.outcome", outcomeName(llm.Classify(err))))
			return res, err
		}}
	}
}

// WithMetrics records the latency and outcome of each invocation.
func WithMetrics(collector *metrics.Collector) Middleware {
	if collector == nil {
		return nil
	}
	return func(next llm.Client) llm.Client {
		return clientFunc{model: next.Model(), invoke: func(ctx context.Context, prompt string) (llm.Result, error) {
			start := time.Now()
			res, err := next.Invoke(ctx, prompt)
			// A call cut off by cancellation is not an invocation.
			if err != nil && ctx.Err() != nil {
				return res, err
			}
			collector.Record(next.Model(), llm.Classify(err), time.Since(start))
			return res, err
		}}
	}
}

// WithLogging logs each invocation outcome.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		return nil
	}
	return func(next llm.Client) llm.Client {
		return clientFunc{model: next.Model(), invoke: func(ctx context.Context, prompt string) (llm.Result, error) {
			res, err := next.Invoke(ctx, prompt)
			if kind := llm.Classify(err); kind == llm.KindOther {
				logger.Warn("invocation failed",
					zap.String("model", next.Model()),
					zap.Error(err),
				)
			} else if err != nil {
				logger.Debug("invocation failed",
					zap.String("model", next.Model()),
					zap.String("outcome", outcomeName(kind)),
					zap.Error(err),
				)
			} else {
				logger.Debug("invocation succeeded",
					zap.String("model", next.Model()),
					zap.Int("response_chars", len(res.Response)),
				)
			}
			return res, err
		}}
	}
}

func outcomeName(kind llm.Kind) string {
	if kind == llm.KindNone {
		return metrics.OutcomeSuccess
	}
	return string(kind)
}
