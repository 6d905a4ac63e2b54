package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/docriver/internal/api"
	"github.com/JaimeStill/docriver/internal/config"
	"github.com/JaimeStill/docriver/internal/infrastructure"
	"github.com/JaimeStill/docriver/internal/outcomes"
	"github.com/JaimeStill/docriver/internal/token"
	"github.com/JaimeStill/docriver/internal/uploader"
	"github.com/JaimeStill/docriver/pkg/middleware"
	"github.com/JaimeStill/docriver/pkg/module"
	"github.com/JaimeStill/docriver/pkg/submission"
	"github.com/JaimeStill/docriver/web/scalar"
)

const scalarPath = "/scalar"

// Modules holds the mounted modules and the host dispatcher every
// uploader submission bubbles its outcome events to.
type Modules struct {
	API      *module.Module
	Uploader *module.Module
	Scalar   *module.Module
	Sinks    *outcomes.Sinks

	detach func()
}

// NewModules builds the API, uploader and reference modules for cfg.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	sinks := outcomes.New(cfg, infra)

	host := submission.NewDispatcher(nil)
	detach := sinks.Attach(host)

	hook, err := token.NewHook(&cfg.Token, infra.HTTPClient, infra.Logger)
	if err != nil {
		return nil, err
	}

	registry, direct := token.Install(hook, cfg.Submission.OnDocumentSubmit)

	viewHook, err := token.NewViewHook(&cfg.Token, infra.HTTPClient, infra.Logger)
	if err != nil {
		return nil, err
	}

	up, err := uploader.New(cfg.Web.UploaderPath, uploader.Options{
		Submission:    &cfg.Submission,
		MaxUploadSize: int64(cfg.Web.MaxUploadSize),
		HTTPClient:    infra.HTTPClient,
		Registry:      registry,
		Parent:        host,
		Hook:          direct,
		ViewHook:      viewHook,
		Logger:        infra.Logger,
	})
	if err != nil {
		return nil, err
	}

	uploaderModule, err := up.Module(cfg.Web.UploaderPath)
	if err != nil {
		return nil, err
	}
	uploaderModule.Use(middleware.Logger(infra.Logger))
	uploaderModule.Use(middleware.Recover(infra.Logger))
	uploaderModule.Use(middleware.RequestID())

	apiModule, err := api.NewModule(cfg, infra, sinks)
	if err != nil {
		return nil, err
	}

	scalarModule, err := scalar.NewModule(scalarPath, cfg.Web.APIPath+"/openapi.json")
	if err != nil {
		return nil, err
	}
	scalarModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:      apiModule,
		Uploader: uploaderModule,
		Scalar:   scalarModule,
		Sinks:    sinks,
		detach:   detach,
	}, nil
}

// Mount attaches every module to router.
func (m *Modules) Mount(router *module.Router) error {
	for _, mod := range []*module.Module{m.API, m.Uploader, m.Scalar} {
		if err := router.Mount(mod); err != nil {
			return err
		}
	}
	return nil
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
