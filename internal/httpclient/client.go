package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// MaxSnippetBytes bounds how much of an error body is kept.
const MaxSnippetBytes = 4096

// AuthProvider supplies authentication tokens and injects them into HTTP requests.
type AuthProvider interface {
	Token(ctx context.Context) (string, error)
	InjectHeader(ctx context.Context, req *http.Request) error
	Close() error
}

// NewJSONRequest builds a request carrying payload encoded as JSON. provider
// may be nil.
func NewJSONRequest(ctx context.Context, method, target string, payload interface{}, provider AuthProvider) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(target) == "" {
		return nil, errors.New("target URL is required")
	}

	var body io.Reader
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(raw)), nil
		}
	}

	if provider != nil {
		if err := provider.InjectHeader(ctx, req); err != nil {
			return nil, fmt.Errorf("auth provider inject header: %w", err)
		}
	}
	return req, nil
}

// ReadSnippet reads at most max bytes of r, drains the rest and returns the
// trimmed text.
func ReadSnippet(r io.Reader, max int) (string, error) {
	if max <= 0 {
		max = MaxSnippetBytes
	}
	snippet, err := io.ReadAll(io.LimitReader(r, int64(max)))
	_, _ = io.Copy(io.Discard, r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(snippet)), nil
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
