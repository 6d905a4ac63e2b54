package token

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OIDCSource obtains access tokens through the client-credentials grant.
// The provider's token endpoint is discovered on first use.
type OIDCSource struct {
	cfg    *Config
	client *http.Client

	mu       sync.Mutex
	tokenURL string
}

// NewOIDCSource creates a source for the provider at cfg.IssuerURL.
func NewOIDCSource(cfg *Config, client *http.Client) *OIDCSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &OIDCSource{cfg: cfg, client: client}
}

func (s *OIDCSource) endpoint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokenURL != "" {
		return s.tokenURL, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, s.client), s.cfg.IssuerURL)
	if err != nil {
		return "", fmt.Errorf("discover provider: %w", err)
	}
	s.tokenURL = provider.Endpoint().TokenURL
	return s.tokenURL, nil
}

// Grant requests an access token. Permissions are not forwarded; the
// provider decides what the client may do.
func (s *OIDCSource) Grant(ctx context.Context, _ Permissions) (Grant, error) {
	tokenURL, err := s.endpoint(ctx)
	if err != nil {
		return Grant{}, err
	}

	cc := clientcredentials.Config{
		ClientID:       s.cfg.ClientID,
		ClientSecret:   s.cfg.ClientSecret,
		TokenURL:       tokenURL,
		Scopes:         s.cfg.Scopes,
		EndpointParams: url.Values{"audience": {s.cfg.Audience}},
	}

	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, s.client))
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %w", ErrTokenRejected, err)
	}
	return Grant{Authorization: "Bearer " + tok.AccessToken}, nil
}
