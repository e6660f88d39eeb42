package auth

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyProvider(t *testing.T) {
	provider, err := NewAPIKeyProvider("  my-key ")
	if err != nil {
		t.Fatalf("NewAPIKeyProvider() error = %v", err)
	}

	gotToken, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if gotToken != "my-key" {
		t.Errorf("Token() = %q, want %q", gotToken, "my-key")
	}

	req := httptest.NewRequest("POST", "http://example.com/v1beta/models/x:generateContent", nil)
	if err := provider.InjectHeader(context.Background(), req); err != nil {
		t.Fatalf("InjectHeader() error = %v", err)
	}
	if got := req.Header.Get(APIKeyHeader); got != "my-key" {
		t.Errorf("%s header = %q, want my-key", APIKeyHeader, got)
	}
	if req.URL.RawQuery != "" {
		t.Errorf("API key must not be placed in the URL, got query %q", req.URL.RawQuery)
	}

	if err := provider.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestAPIKeyProviderRejectsEmpty(t *testing.T) {
	if _, err := NewAPIKeyProvider(" "); err == nil {
		t.Fatal("expected error for empty key")
	}
}
