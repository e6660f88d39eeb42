package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GenerativeLanguageScope grants access to the Generative Language API.
const GenerativeLanguageScope = "https://www.googleapis.com/auth/generative-language"

// CloudPlatformScope is the broad Google Cloud scope accepted as a fallback.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// findDefaultCredentials is a variable so tests can stub it.
var findDefaultCredentials = google.FindDefaultCredentials

// OAuth2Provider injects bearer tokens from an oauth2.TokenSource. Tokens are
// cached and refreshed by oauth2.ReuseTokenSource.
type OAuth2Provider struct {
	source oauth2.TokenSource
}

// NewOAuth2Provider wraps ts.
func NewOAuth2Provider(ts oauth2.TokenSource) (*OAuth2Provider, error) {
	if ts == nil {
		return nil, errors.New("auth: token source is nil")
	}
	return &OAuth2Provider{source: oauth2.ReuseTokenSource(nil, ts)}, nil
}

// NewDefaultCredentialsProvider resolves Application Default Credentials.
func NewDefaultCredentialsProvider(ctx context.Context, scopes ...string) (*OAuth2Provider, error) {
	if len(scopes) == 0 {
		scopes = []string{GenerativeLanguageScope, CloudPlatformScope}
	}
	creds, err := findDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("auth: default credentials: %w", err)
	}
	return NewOAuth2Provider(creds.TokenSource)
}

// Token returns a valid access token, refreshing it when expired.
func (p *OAuth2Provider) Token(ctx context.Context) (string, error) {
	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("auth: fetch token: %w", err)
	}
	return tok.AccessToken, nil
}

// InjectHeader sets the Authorization header.
func (p *OAuth2Provider) InjectHeader(ctx context.Context, req *http.Request) error {
	tok, err := p.source.Token()
	if err != nil {
		return fmt.Errorf("auth: fetch token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

// Close is a no-op; token sources hold no resources.
func (p *OAuth2Provider) Close() error {
	return nil
}
