package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/docriver/pkg/formatting"
	"github.com/JaimeStill/docriver/pkg/middleware"
	"github.com/JaimeStill/docriver/pkg/openapi"
	"github.com/JaimeStill/docriver/pkg/pagination"
)

const (
	EnvWebUploaderPath = "DOCRIVER_WEB_UPLOADER_PATH"
	EnvWebAPIPath      = "DOCRIVER_WEB_API_PATH"
	EnvWebMaxUpload    = "DOCRIVER_WEB_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "DOCRIVER_CORS_ENABLED",
	Origins:          "DOCRIVER_CORS_ORIGINS",
	AllowedMethods:   "DOCRIVER_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "DOCRIVER_CORS_ALLOWED_HEADERS",
	AllowCredentials: "DOCRIVER_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "DOCRIVER_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "DOCRIVER_OPENAPI_TITLE",
	Description: "DOCRIVER_OPENAPI_DESCRIPTION",
	Version:     "DOCRIVER_OPENAPI_VERSION",
	Servers:     "DOCRIVER_OPENAPI_SERVERS",
}

var openapiDefaults = &openapi.Config{
	Title:       "Docriver API",
	Description: "Submission history, archived receipts and document reads for a docriver realm.",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "DOCRIVER_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "DOCRIVER_PAGINATION_MAX_PAGE_SIZE",
}

// WebConfig holds the mount points of the uploader and API modules and
// the limits shared by both.
type WebConfig struct {
	UploaderPath  string                `toml:"uploader_path"`
	APIPath       string                `toml:"api_path"`
	MaxUploadSize formatting.Size       `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the web config and its nested CORS and pagination configs.
func (c *WebConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiDefaults, openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *WebConfig) Merge(overlay *WebConfig) {
	if overlay.UploaderPath != "" {
		c.UploaderPath = overlay.UploaderPath
	}
	if overlay.APIPath != "" {
		c.APIPath = overlay.APIPath
	}
	if overlay.MaxUploadSize != 0 {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *WebConfig) loadDefaults() {
	if c.UploaderPath == "" {
		c.UploaderPath = "/uploader"
	}
	if c.APIPath == "" {
		c.APIPath = "/api"
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 64 << 20
	}
}

func (c *WebConfig) loadEnv() error {
	if v := os.Getenv(EnvWebUploaderPath); v != "" {
		c.UploaderPath = v
	}
	if v := os.Getenv(EnvWebAPIPath); v != "" {
		c.APIPath = v
	}
	if v := os.Getenv(EnvWebMaxUpload); v != "" {
		if err := c.MaxUploadSize.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("max_upload_size: %w", err)
		}
	}
	return nil
}

func (c *WebConfig) validate() error {
	for _, p := range []string{c.UploaderPath, c.APIPath} {
		if !strings.HasPrefix(p, "/") || strings.Count(p, "/") != 1 || p == "/" {
			return fmt.Errorf("module path must be a single-level sub-path: %q", p)
		}
	}
	if c.UploaderPath == c.APIPath {
		return fmt.Errorf("uploader_path and api_path must differ")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
