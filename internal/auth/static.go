package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// APIKeyHeader carries the Generative Language API key.
const APIKeyHeader = "x-goog-api-key"

// APIKeyProvider sends a fixed API key with every request.
type APIKeyProvider struct {
	key string
}

// NewAPIKeyProvider creates a provider for key.
func NewAPIKeyProvider(key string) (*APIKeyProvider, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("auth: api key is empty")
	}
	return &APIKeyProvider{key: key}, nil
}

// Token returns the API key without any network calls.
func (p *APIKeyProvider) Token(ctx context.Context) (string, error) {
	return p.key, nil
}

// InjectHeader sets the API key header. The key is never put in the URL so it
// cannot leak into logged request lines.
func (p *APIKeyProvider) InjectHeader(ctx context.Context, req *http.Request) error {
	req.Header.Set(APIKeyHeader, p.key)
	return nil
}

// Close is a no-op for API key providers.
func (p *APIKeyProvider) Close() error {
	return nil
}
