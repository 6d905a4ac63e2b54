package submission

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const txPath = "/tx/"

// Config holds the host configuration surface of an uploader.
type Config struct {
	DocServer        string   `toml:"doc_server"`
	Realm            string   `toml:"realm"`
	Timeout          string   `toml:"timeout"`
	Label            string   `toml:"label"`
	Metadata         Metadata `toml:"metadata"`
	OnDocumentSubmit string   `toml:"on_document_submit"`
	OnResult         string   `toml:"on_result"`
	OnError          string   `toml:"on_error"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	DocServer     string
	Realm         string
	Timeout       string
	Label         string
	Authorization string
}

// Endpoint returns the transaction URL: {DocServer}/tx/{Realm}.
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.DocServer, "/") + txPath + url.PathEscape(c.Realm)
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// RenderLabel renders the label template against the configured metadata.
func (c *Config) RenderLabel() string {
	return RenderLabel(c.Label, c.Metadata.Values())
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
	if overlay.DocServer != "" {
		c.DocServer = overlay.DocServer
	}
	if overlay.Realm != "" {
		c.Realm = overlay.Realm
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Label != "" {
		c.Label = overlay.Label
	}
	if overlay.OnDocumentSubmit != "" {
		c.OnDocumentSubmit = overlay.OnDocumentSubmit
	}
	if overlay.OnResult != "" {
		c.OnResult = overlay.OnResult
	}
	if overlay.OnError != "" {
		c.OnError = overlay.OnError
	}
	c.Metadata.Merge(&overlay.Metadata)
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.Label == "" {
		c.Label = "Select one or more files. Click the Submit button when done:"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.DocServer != "" {
		if v := os.Getenv(env.DocServer); v != "" {
			c.DocServer = v
		}
	}
	if env.Realm != "" {
		if v := os.Getenv(env.Realm); v != "" {
			c.Realm = v
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.Label != "" {
		if v := os.Getenv(env.Label); v != "" {
			c.Label = v
		}
	}
	if env.Authorization != "" {
		if v := os.Getenv(env.Authorization); v != "" {
			c.Metadata.Authorization = &v
		}
	}
}

func (c *Config) validate() error {
	if c.DocServer == "" {
		return fmt.Errorf("%w: doc_server required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.DocServer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: doc_server must be an absolute URL: %q", ErrInvalidConfig, c.DocServer)
	}
	if c.Realm == "" {
		return fmt.Errorf("%w: realm required", ErrInvalidConfig)
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("%w: invalid timeout: %v", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
