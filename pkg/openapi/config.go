package openapi

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ErrInvalidServer reports a server entry that is neither an absolute
// http(s) URL nor a path.
var ErrInvalidServer = errors.New("invalid server url")

// Config holds the info block and server list of the generated document.
// Version overrides the application version; Servers replaces the mount
// path the host would otherwise advertise.
type Config struct {
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Version     string   `toml:"version"`
	Servers     []string `toml:"servers"`
}

// ConfigEnv maps config fields to environment variable names. Servers is
// read as a comma-separated list.
type ConfigEnv struct {
	Title       string
	Description string
	Version     string
	Servers     string
}

// Finalize fills unset fields from defaults, then applies environment
// overrides and validates the server list.
func (c *Config) Finalize(defaults *Config, env *ConfigEnv) error {
	if defaults != nil {
		c.fill(defaults)
	}
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if len(overlay.Servers) > 0 {
		c.Servers = overlay.Servers
	}
}

func (c *Config) fill(defaults *Config) {
	if c.Title == "" {
		c.Title = defaults.Title
	}
	if c.Description == "" {
		c.Description = defaults.Description
	}
	if c.Version == "" {
		c.Version = defaults.Version
	}
	if len(c.Servers) == 0 {
		c.Servers = defaults.Servers
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	str := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	str(env.Title, &c.Title)
	str(env.Description, &c.Description)
	str(env.Version, &c.Version)

	if env.Servers != "" {
		if v := os.Getenv(env.Servers); v != "" {
			c.Servers = nil
			for s := range strings.SplitSeq(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					c.Servers = append(c.Servers, s)
				}
			}
		}
	}
}

func (c *Config) validate() error {
	for _, s := range c.Servers {
		if strings.HasPrefix(s, "/") {
			continue
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s", ErrInvalidServer, s)
		}
	}
	return nil
}
