// Package web renders server-side pages from embedded templates and serves
// embedded static assets.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

// ViewDef names a page template and its title.
type ViewDef struct {
	Name     string
	Template string
	Title    string
}

// ViewData is passed to every page template. BasePath lets templates build
// URLs with {{ .BasePath }}.
type ViewData struct {
	Title    string
	BasePath string
	Data     any
}

// TemplateSet holds one parsed template tree per view, each cloned from the
// shared layouts.
type TemplateSet struct {
	views    map[string]*template.Template
	defs     map[string]ViewDef
	layout   string
	basePath string
}

// NewTemplateSet parses layoutGlob from fsys and clones it for each view.
// Parse failures surface here rather than on the first request.
func NewTemplateSet(fsys fs.FS, layoutGlob, layout, basePath string, funcs template.FuncMap, views ...ViewDef) (*TemplateSet, error) {
	layouts, err := template.New("").Funcs(funcs).ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}

	ts := &TemplateSet{
		views:    make(map[string]*template.Template, len(views)),
		defs:     make(map[string]ViewDef, len(views)),
		layout:   layout,
		basePath: basePath,
	}

	for _, v := range views {
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", v.Name, err)
		}
		if _, err := t.ParseFS(fsys, v.Template); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", v.Template, err)
		}
		ts.views[v.Name] = t
		ts.defs[v.Name] = v
	}

	return ts, nil
}

// BasePath returns the path prefix pages are served under.
func (ts *TemplateSet) BasePath() string {
	return ts.basePath
}

// Render writes the named view with status. The page is rendered into a
// buffer first so a template error still produces a clean 500.
func (ts *TemplateSet) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := ts.views[name]
	if !ok {
		return fmt.Errorf("view not found: %s", name)
	}

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, ts.layout, ViewData{
		Title:    ts.defs[name].Title,
		BasePath: ts.basePath,
		Data:     data,
	})
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// PageHandler renders view with the data returned by load.
func (ts *TemplateSet) PageHandler(name string, load func(*http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data any
		if load != nil {
			data = load(r)
		}
		if err := ts.Render(w, http.StatusOK, name, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// ErrorHandler renders view with status.
func (ts *TemplateSet) ErrorHandler(name string, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ts.Render(w, status, name, r.URL.Path); err != nil {
			http.Error(w, http.StatusText(status), status)
		}
	}
}
