// Package auth supplies credentials for the hosted model API.
package auth

import (
	"context"
	"net/http"
)

// Provider defines the interface for authentication providers that can
// obtain tokens and inject them into HTTP requests.
type Provider interface {
	// Token retrieves the credential sent with each request.
	Token(ctx context.Context) (string, error)

	// InjectHeader injects the credential into the provided HTTP request.
	InjectHeader(ctx context.Context, req *http.Request) error

	// Close releases any resources held by the provider.
	Close() error
}
