// Package config loads the docriver configuration from a TOML base file, an
// optional per-environment overlay, and DOCRIVER_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/docriver/internal/token"
	"github.com/JaimeStill/docriver/pkg/database"
	"github.com/JaimeStill/docriver/pkg/pubsub"
	"github.com/JaimeStill/docriver/pkg/storage"
	"github.com/JaimeStill/docriver/pkg/submission"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvConfig          = "DOCRIVER_CONFIG"
	EnvEnv             = "DOCRIVER_ENV"
	EnvShutdownTimeout = "DOCRIVER_SHUTDOWN_TIMEOUT"
	EnvVersion         = "DOCRIVER_VERSION"
)

var submissionEnv = &submission.Env{
	DocServer:     "DOCRIVER_DOC_SERVER",
	Realm:         "DOCRIVER_REALM",
	Timeout:       "DOCRIVER_TIMEOUT",
	Label:         "DOCRIVER_LABEL",
	Authorization: "DOCRIVER_AUTHORIZATION",
}

var tokenEnv = &token.Env{
	Mode:         "DOCRIVER_TOKEN_MODE",
	Subject:      "DOCRIVER_TOKEN_SUBJECT",
	KeyFile:      "DOCRIVER_TOKEN_KEY_FILE",
	Secret:       "DOCRIVER_TOKEN_SECRET",
	ServerURL:    "DOCRIVER_TOKEN_SERVER_URL",
	IssuerURL:    "DOCRIVER_OIDC_ISSUER_URL",
	ClientID:     "DOCRIVER_OIDC_CLIENT_ID",
	ClientSecret: "DOCRIVER_OIDC_CLIENT_SECRET",
}

var journalEnv = &database.Env{
	Host:            "DOCRIVER_DB_HOST",
	Port:            "DOCRIVER_DB_PORT",
	Name:            "DOCRIVER_DB_NAME",
	User:            "DOCRIVER_DB_USER",
	Password:        "DOCRIVER_DB_PASSWORD",
	SSLMode:         "DOCRIVER_DB_SSL_MODE",
	MaxConns:        "DOCRIVER_DB_MAX_CONNS",
	MinConns:        "DOCRIVER_DB_MIN_CONNS",
	ConnMaxLifetime: "DOCRIVER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCRIVER_DB_CONN_TIMEOUT",
}

var receiptsEnv = &storage.Env{
	Backend:          "DOCRIVER_RECEIPTS_BACKEND",
	Container:        "DOCRIVER_RECEIPTS_CONTAINER",
	ConnectionString: "DOCRIVER_RECEIPTS_CONNECTION_STRING",
	AccountURL:       "DOCRIVER_RECEIPTS_ACCOUNT_URL",
	Endpoint:         "DOCRIVER_RECEIPTS_ENDPOINT",
	AccessKey:        "DOCRIVER_RECEIPTS_ACCESS_KEY",
	SecretKey:        "DOCRIVER_RECEIPTS_SECRET_KEY",
	UseSSL:           "DOCRIVER_RECEIPTS_USE_SSL",
}

var eventsEnv = &pubsub.Env{
	URL:       "DOCRIVER_EVENTS_URL",
	Exchange:  "DOCRIVER_EVENTS_EXCHANGE",
	KeyPrefix: "DOCRIVER_EVENTS_KEY_PREFIX",
}

// Config is the root configuration shared by drc and the server. Journal,
// receipts, events and token are optional and stay disabled when empty.
type Config struct {
	Submission      submission.Config `toml:"submission"`
	Server          ServerConfig      `toml:"server"`
	Web             WebConfig         `toml:"web"`
	Log             LogConfig         `toml:"log"`
	Token           token.Config      `toml:"token"`
	Journal         database.Config   `toml:"journal"`
	Receipts        storage.Config    `toml:"receipts"`
	Events          pubsub.Config     `toml:"events"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the DOCRIVER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base file at path, or DOCRIVER_CONFIG, or config.toml when
// path is empty. A missing default file is not an error. The DOCRIVER_ENV
// overlay is read from the same directory, then overrides run in order
// before environment variables and validation are applied.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = BaseConfigFile
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	for _, fn := range overrides {
		fn(cfg)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sections.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Submission.Merge(&overlay.Submission)
	c.Server.Merge(&overlay.Server)
	c.Web.Merge(&overlay.Web)
	c.Log.Merge(&overlay.Log)
	c.Token.Merge(&overlay.Token)
	c.Journal.Merge(&overlay.Journal)
	c.Receipts.Merge(&overlay.Receipts)
	c.Events.Merge(&overlay.Events)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"submission", func() error { return c.Submission.Finalize(submissionEnv) }},
		{"server", c.Server.Finalize},
		{"web", c.Web.Finalize},
		{"log", c.Log.Finalize},
		{"token", func() error { return c.Token.Finalize(tokenEnv) }},
		{"journal", func() error { return c.Journal.Finalize(journalEnv) }},
		{"receipts", func() error { return c.Receipts.Finalize(receiptsEnv) }},
		{"events", func() error { return c.Events.Finalize(eventsEnv) }},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvEnv)
	if env == "" {
		return ""
	}
	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
