// Package llm defines the contract between the runner and hosted model
// providers: a client bound to one model that answers a single prompt with a
// structured result, and the classification of its failures.
package llm

import "context"

// Result is the structured output requested from every model.
type Result struct {
	Response string `json:"response"`
}

// Client is bound to a single model.
type Client interface {
	Model() string
	Invoke(ctx context.Context, prompt string) (Result, error)
}

// Factory builds clients for a model name. A construction error is fatal to
// the run.
type Factory interface {
	NewClient(model string) (Client, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(model string) (Client, error)

func (f FactoryFunc) NewClient(model string) (Client, error) {
	return f(model)
}
