package pubsub

import (
	"fmt"
	"net/url"
	"os"
)

// Config holds broker parameters. An empty URL disables publishing.
type Config struct {
	URL       string `toml:"url"`
	Exchange  string `toml:"exchange"`
	KeyPrefix string `toml:"key_prefix"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URL       string
	Exchange  string
	KeyPrefix string
}

// Enabled reports whether a broker is configured.
func (c *Config) Enabled() bool {
	return c.URL != ""
}

// Key joins the configured prefix and name into a routing key.
func (c *Config) Key(name string) string {
	if c.KeyPrefix == "" {
		return name
	}
	return c.KeyPrefix + "." + name
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
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.Exchange != "" {
		c.Exchange = overlay.Exchange
	}
	if overlay.KeyPrefix != "" {
		c.KeyPrefix = overlay.KeyPrefix
	}
}

func (c *Config) loadDefaults() {
	if c.Exchange == "" {
		c.Exchange = "docriver"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "submission"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.URL != "" {
		if v := os.Getenv(env.URL); v != "" {
			c.URL = v
		}
	}
	if env.Exchange != "" {
		if v := os.Getenv(env.Exchange); v != "" {
			c.Exchange = v
		}
	}
	if env.KeyPrefix != "" {
		if v := os.Getenv(env.KeyPrefix); v != "" {
			c.KeyPrefix = v
		}
	}
}

func (c *Config) validate() error {
	if !c.Enabled() {
		return nil
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
		return fmt.Errorf("url must use amqp:// or amqps://")
	}
	return nil
}
