package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Supported backends.
const (
	BackendAzure = "azure"
	BackendMinio = "minio"
)

// Config selects and parameterizes a blob backend. An empty Backend
// disables storage entirely.
type Config struct {
	Backend   string `toml:"backend"`
	Container string `toml:"container"`

	// azure: a connection string, or an account URL authenticated with
	// the default Azure credential chain.
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`

	// minio
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend          string
	Container        string
	ConnectionString string
	AccountURL       string
	Endpoint         string
	AccessKey        string
	SecretKey        string
	UseSSL           string
}

// Enabled reports whether a backend is configured.
func (c *Config) Enabled() bool {
	return c.Backend != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Container != "" {
		c.Container = overlay.Container
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKey != "" {
		c.AccessKey = overlay.AccessKey
	}
	if overlay.SecretKey != "" {
		c.SecretKey = overlay.SecretKey
	}
	if overlay.UseSSL {
		c.UseSSL = true
	}
}

func (c *Config) loadDefaults() {
	if c.Enabled() && c.Container == "" {
		c.Container = "receipts"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Backend, &c.Backend)
	set(env.Container, &c.Container)
	set(env.ConnectionString, &c.ConnectionString)
	set(env.AccountURL, &c.AccountURL)
	set(env.Endpoint, &c.Endpoint)
	set(env.AccessKey, &c.AccessKey)
	set(env.SecretKey, &c.SecretKey)

	if env.UseSSL != "" {
		if v := os.Getenv(env.UseSSL); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.UseSSL = b
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case "":
		return nil
	case BackendAzure:
		if c.ConnectionString == "" && c.AccountURL == "" {
			return fmt.Errorf("azure backend requires connection_string or account_url")
		}
	case BackendMinio:
		if c.Endpoint == "" {
			return fmt.Errorf("minio backend requires endpoint")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}
	return nil
}
