package api

import (
	"github.com/JaimeStill/docriver/internal/config"
	"github.com/JaimeStill/docriver/internal/infrastructure"
	"github.com/JaimeStill/docriver/pkg/openapi"
	"github.com/JaimeStill/docriver/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	OpenAPI    openapi.Config
	BasePath   string
	DocServer  string
	Realm      string
	Version    string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.Web.Pagination,
		OpenAPI:        cfg.Web.OpenAPI,
		BasePath:       cfg.Web.APIPath,
		DocServer:      cfg.Submission.DocServer,
		Realm:          cfg.Submission.Realm,
		Version:        cfg.Version,
	}
}
