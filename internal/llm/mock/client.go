// Package mock provides scripted llm clients for tests.
package mock

import (
	"context"
	"sync"

	"github.com/torosent/freehit/internal/llm"
)

// Factory is a test double implementing llm.Factory. Every invocation, on any
// model, is recorded in order.
type Factory struct {
	// InvokeFn answers an invocation. When nil, every call succeeds.
	InvokeFn func(ctx context.Context, model, prompt string) (llm.Result, error)
	// NewClientFn optionally fails client construction for a model.
	NewClientFn func(model string) error

	mu    sync.Mutex
	calls []string
}

// NewClient implements llm.Factory.
func (f *Factory) NewClient(model string) (llm.Client, error) {
	if f.NewClientFn != nil {
		if err := f.NewClientFn(model); err != nil {
			return nil, err
		}
	}
	return &client{factory: f, model: model}, nil
}

// Calls returns the models invoked so far, in order.
func (f *Factory) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Factory) record(model string) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.mu.Unlock()
}

type client struct {
	factory *Factory
	model   string
}

func (c *client) Model() string {
	return c.model
}

func (c *client) Invoke(ctx context.Context, prompt string) (llm.Result, error) {
	c.factory.record(c.model)
	if c.factory.InvokeFn != nil {
		return c.factory.InvokeFn(ctx, c.model, prompt)
	}
	return llm.Result{Response: "mock"}, nil
}

// Sequence returns an InvokeFn that replays errs in order, one per call; a
// nil entry is a success. Once the script is exhausted, last repeats.
func Sequence(last error, errs ...error) func(context.Context, string, string) (llm.Result, error) {
	var mu sync.Mutex
	i := 0
	return func(_ context.Context, _ string, _ string) (llm.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		err := last
		if i < len(errs) {
			err = errs[i]
			i++
		}
		if err != nil {
			return llm.Result{}, err
		}
		return llm.Result{Response: "mock"}, nil
	}
}

// RateLimited returns a classified rate-limit error for model.
func RateLimited(model string) error {
	return &llm.Error{Kind: llm.KindRateLimited, Model: model, Status: 429, Code: "RESOURCE_EXHAUSTED"}
}

// NotFound returns a classified not-found error for model.
func NotFound(model string) error {
	return &llm.Error{Kind: llm.KindNotFound, Model: model, Status: 404, Code: "NOT_FOUND"}
}
