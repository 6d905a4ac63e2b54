// Package uploader serves the browser uploader: a form carrying the
// configured hidden metadata and label, a submit action that runs one
// submission per request, and document links that open through the
// document server's viewer URL.
package uploader

import (
	"embed"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/module"
	"github.com/JaimeStill/docriver/pkg/routes"
	"github.com/JaimeStill/docriver/pkg/submission"
	"github.com/JaimeStill/docriver/pkg/web"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var views = []web.ViewDef{
	{Name: "form", Template: "templates/form.html", Title: "Upload documents"},
	{Name: "not-found", Template: "templates/not_found.html", Title: "Not found"},
}

// Options configures an Uploader.
type Options struct {
	Submission    *submission.Config
	MaxUploadSize int64
	HTTPClient    *http.Client
	Registry      *submission.Registry
	// Parent receives every outcome event after the per-request listeners.
	Parent   *submission.Dispatcher
	Hook     submission.Hook
	ViewHook docriver.ViewHook
	Logger   *slog.Logger
}

// Uploader handles uploader pages for one realm.
type Uploader struct {
	cfg       submission.Config
	maxUpload int64
	opts      []submission.Option
	client    *docriver.Client
	viewHook  docriver.ViewHook
	pages     *web.TemplateSet
	logger    *slog.Logger
}

// New creates an Uploader whose links and form actions are rooted at basePath.
func New(basePath string, o Options) (*Uploader, error) {
	if o.Submission == nil {
		return nil, fmt.Errorf("uploader requires a submission config")
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}

	pages, err := web.NewTemplateSet(templateFS, "templates/layout.html", "layout", basePath, nil, views...)
	if err != nil {
		return nil, err
	}

	logger := o.Logger.With("system", "uploader", "realm", o.Submission.Realm)

	opts := []submission.Option{
		submission.WithHTTPClient(o.HTTPClient),
		submission.WithLogger(o.Logger),
	}
	if o.Registry != nil {
		opts = append(opts, submission.WithRegistry(o.Registry))
	}
	if o.Parent != nil {
		opts = append(opts, submission.WithParent(o.Parent))
	}
	if o.Hook != nil {
		opts = append(opts, submission.WithHook(o.Hook))
	}

	u := &Uploader{
		cfg:       *o.Submission,
		maxUpload: o.MaxUploadSize,
		opts:      opts,
		client:    docriver.NewClient(o.Submission.DocServer, o.Submission.Realm, o.HTTPClient),
		viewHook:  o.ViewHook,
		pages:     pages,
		logger:    logger,
	}

	// Controller construction validates the config and resolves the
	// configured hook and listener names up front.
	if _, err := submission.New(&u.cfg, opts...); err != nil {
		return nil, err
	}
	return u, nil
}

// Routes returns the uploader routes relative to the module prefix.
func (u *Uploader) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{$}", Handler: u.Form},
			{Method: "POST", Pattern: "/submit", Handler: u.Submit},
			{Method: "POST", Pattern: "/reset", Handler: u.Reset},
			{Method: "GET", Pattern: "/view/{document}", Handler: u.View},
		},
	}
}

// Module mounts the uploader pages and static assets under prefix.
func (u *Uploader) Module(prefix string) (*module.Module, error) {
	router := web.NewRouter()
	routes.Register(router, u.Routes())

	static, err := web.Static(staticFS, "static", "/static/")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}
	router.Handle("GET /static/", static)
	router.SetFallback(u.pages.ErrorHandler("not-found", http.StatusNotFound))

	return module.New(prefix, router)
}
