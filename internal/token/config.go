package token

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Token sources.
const (
	ModeNone   = ""
	ModeJWT    = "jwt"
	ModeServer = "server"
	ModeOIDC   = "oidc"
)

// Config selects how submissions obtain their authorization. The jwt mode
// signs tokens locally, server exchanges credentials with a docriver token
// server, and oidc runs a client-credentials grant against an OpenID provider.
type Config struct {
	Mode        string   `toml:"mode"`
	Issuer      string   `toml:"issuer"`
	Subject     string   `toml:"subject"`
	Audience    string   `toml:"audience"`
	Resource    string   `toml:"resource"`
	Expires     string   `toml:"expires"`
	Algorithm   string   `toml:"algorithm"`
	KeyFile     string   `toml:"key_file"`
	Secret      string   `toml:"secret"`
	Permissions []string `toml:"permissions"`

	ServerURL string `toml:"server_url"`

	IssuerURL    string   `toml:"issuer_url"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
}

// Env maps config fields to environment variable names.
type Env struct {
	Mode         string
	Subject      string
	KeyFile      string
	Secret       string
	ServerURL    string
	IssuerURL    string
	ClientID     string
	ClientSecret string
}

// Enabled reports whether a token source is configured.
func (c *Config) Enabled() bool {
	return c.Mode != ModeNone
}

// ExpiresDuration returns Expires as a time.Duration.
func (c *Config) ExpiresDuration() time.Duration {
	d, _ := time.ParseDuration(c.Expires)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Mode, overlay.Mode)
	set(&c.Issuer, overlay.Issuer)
	set(&c.Subject, overlay.Subject)
	set(&c.Audience, overlay.Audience)
	set(&c.Resource, overlay.Resource)
	set(&c.Expires, overlay.Expires)
	set(&c.Algorithm, overlay.Algorithm)
	set(&c.KeyFile, overlay.KeyFile)
	set(&c.Secret, overlay.Secret)
	set(&c.ServerURL, overlay.ServerURL)
	set(&c.IssuerURL, overlay.IssuerURL)
	set(&c.ClientID, overlay.ClientID)
	set(&c.ClientSecret, overlay.ClientSecret)

	if overlay.Permissions != nil {
		c.Permissions = overlay.Permissions
	}
	if overlay.Scopes != nil {
		c.Scopes = overlay.Scopes
	}
}

func (c *Config) loadDefaults() {
	if c.Audience == "" {
		c.Audience = "docriver"
	}
	if c.Resource == "" {
		c.Resource = "document"
	}
	if c.Expires == "" {
		c.Expires = "60s"
	}
	if c.Algorithm == "" {
		c.Algorithm = "RS256"
	}
	if c.Issuer == "" {
		c.Issuer = "docriver"
	}
}

func (c *Config) loadEnv(env *Env) {
	pairs := []struct {
		dst  *string
		name string
	}{
		{&c.Mode, env.Mode},
		{&c.Subject, env.Subject},
		{&c.KeyFile, env.KeyFile},
		{&c.Secret, env.Secret},
		{&c.ServerURL, env.ServerURL},
		{&c.IssuerURL, env.IssuerURL},
		{&c.ClientID, env.ClientID},
		{&c.ClientSecret, env.ClientSecret},
	}
	for _, p := range pairs {
		if p.name == "" {
			continue
		}
		if v := os.Getenv(p.name); v != "" {
			*p.dst = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := ParsePermissions(c.Permissions); err != nil {
		return err
	}
	if d, err := time.ParseDuration(c.Expires); err != nil || d <= 0 {
		return fmt.Errorf("%w: invalid expires %q", ErrInvalidConfig, c.Expires)
	}

	switch c.Mode {
	case ModeNone:
		return nil
	case ModeJWT:
		switch strings.ToUpper(c.Algorithm) {
		case "RS256":
			if c.KeyFile == "" {
				return fmt.Errorf("%w: key_file required for RS256", ErrInvalidConfig)
			}
		case "HS256":
			if c.Secret == "" && c.KeyFile == "" {
				return fmt.Errorf("%w: secret or key_file required for HS256", ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unsupported algorithm %s", ErrInvalidConfig, c.Algorithm)
		}
		if c.Subject == "" {
			return fmt.Errorf("%w: subject required", ErrInvalidConfig)
		}
	case ModeServer:
		if c.ServerURL == "" {
			return fmt.Errorf("%w: server_url required", ErrInvalidConfig)
		}
		if c.Subject == "" {
			return fmt.Errorf("%w: subject required", ErrInvalidConfig)
		}
	case ModeOIDC:
		if c.IssuerURL == "" || c.ClientID == "" {
			return fmt.Errorf("%w: issuer_url and client_id required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMode, c.Mode)
	}
	return nil
}
