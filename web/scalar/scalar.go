// Package scalar serves the Scalar API reference for the API module's
// OpenAPI document.
package scalar

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/JaimeStill/docriver/pkg/module"
)

//go:embed index.html
var staticFS embed.FS

// NewModule creates a module that serves the Scalar API reference UI at
// basePath, reading the document from specURL.
func NewModule(basePath, specURL string) (*module.Module, error) {
	router, err := buildRouter(specURL)
	if err != nil {
		return nil, err
	}
	return module.New(basePath, router)
}

func buildRouter(specURL string) (http.Handler, error) {
	tmpl, err := template.ParseFS(staticFS, "index.html")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, map[string]string{"SpecURL": specURL})
	})

	return mux, nil
}
