// Package api assembles the JSON API module: submission history from the
// journal, archived receipts, and document reads proxied to the document
// server.
package api

import (
	"net/http"

	"github.com/JaimeStill/docriver/internal/config"
	"github.com/JaimeStill/docriver/internal/infrastructure"
	"github.com/JaimeStill/docriver/internal/outcomes"
	"github.com/JaimeStill/docriver/pkg/middleware"
	"github.com/JaimeStill/docriver/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure, sinks *outcomes.Sinks) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, sinks)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, runtime); err != nil {
		return nil, err
	}

	m, err := module.New(cfg.Web.APIPath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.CORS(&cfg.Web.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
