package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type serverRequest struct {
	Audience    string      `json:"audience"`
	Resource    string      `json:"resource"`
	Permissions Permissions `json:"permissions"`
}

type serverResponse struct {
	Authorization string `json:"authorization"`
	Token         struct {
		Permissions Permissions `json:"permissions"`
	} `json:"token"`
}

// ServerSource requests tokens from a docriver token server, which assigns
// the transaction id.
type ServerSource struct {
	url      string
	subject  string
	secret   string
	audience string
	resource string
	client   *http.Client
}

// NewServerSource creates a source for the token server at cfg.ServerURL.
func NewServerSource(cfg *Config, client *http.Client) *ServerSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &ServerSource{
		url:      strings.TrimRight(cfg.ServerURL, "/") + "/token",
		subject:  cfg.Subject,
		secret:   cfg.Secret,
		audience: cfg.Audience,
		resource: cfg.Resource,
		client:   client,
	}
}

func (s *ServerSource) Grant(ctx context.Context, perms Permissions) (Grant, error) {
	body, err := json.Marshal(serverRequest{
		Audience:    s.audience,
		Resource:    s.resource,
		Permissions: perms,
	})
	if err != nil {
		return Grant{}, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return Grant{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.subject, s.secret)

	resp, err := s.client.Do(req)
	if err != nil {
		return Grant{}, fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Grant{}, fmt.Errorf("%w: status %d: %s", ErrTokenRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out serverResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Grant{}, fmt.Errorf("decode token response: %w", err)
	}
	if out.Authorization == "" {
		return Grant{}, fmt.Errorf("%w: empty authorization", ErrTokenRejected)
	}

	return Grant{Authorization: out.Authorization, Tx: out.Token.Permissions["tx"]}, nil
}
