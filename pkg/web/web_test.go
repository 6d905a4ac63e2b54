package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/JaimeStill/docriver/pkg/web"
)

var pages = fstest.MapFS{
	"layouts/app.html":  {Data: []byte(`{{ define "app" }}<title>{{ .Title }}</title><a href="{{ .BasePath }}/">home</a>{{ template "content" . }}{{ end }}`)},
	"views/form.html":   {Data: []byte(`{{ define "content" }}<p>{{ upper .Data }}</p>{{ end }}`)},
	"views/broken.html": {Data: []byte(`{{ define "content" }}{{ .Data.Missing }}{{ end }}`)},
	"static/app.css":    {Data: []byte(`body{}`)},
}

func newSet(t *testing.T) *web.TemplateSet {
	t.Helper()
	ts, err := web.NewTemplateSet(pages, "layouts/*.html", "app", "/uploader",
		map[string]any{"upper": strings.ToUpper},
		web.ViewDef{Name: "form", Template: "views/form.html", Title: "Upload"},
		web.ViewDef{Name: "broken", Template: "views/broken.html", Title: "Broken"},
	)
	if err != nil {
		t.Fatalf("template set: %v", err)
	}
	return ts
}

func TestRender(t *testing.T) {
	ts := newSet(t)

	rec := httptest.NewRecorder()
	if err := ts.Render(rec, http.StatusAccepted, "form", "claim"); err != nil {
		t.Fatal(err)
	}

	body := rec.Body.String()
	if rec.Code != http.StatusAccepted {
		t.Errorf("status: got %d", rec.Code)
	}
	for _, want := range []string{"<title>Upload</title>", `href="/uploader/"`, "<p>CLAIM</p>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	ts := newSet(t)

	if err := ts.Render(httptest.NewRecorder(), http.StatusOK, "absent", nil); err == nil {
		t.Error("expected error for unknown view")
	}

	rec := httptest.NewRecorder()
	if err := ts.Render(rec, http.StatusOK, "broken", 42); err == nil {
		t.Error("expected execution error")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("partial output written: %q", rec.Body.String())
	}
}

func TestRouterFallback(t *testing.T) {
	ts := newSet(t)
	static, err := web.Static(pages, "static", "/static/")
	if err != nil {
		t.Fatal(err)
	}

	r := web.NewRouter()
	r.Handle("GET /static/", static)
	r.HandleFunc("GET /{$}", ts.PageHandler("form", func(*http.Request) any { return "x" }))
	r.SetFallback(ts.ErrorHandler("form", http.StatusNotFound))

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/", http.StatusOK, "<p>X</p>"},
		{"/static/app.css", http.StatusOK, "body{}"},
		{"/nowhere", http.StatusNotFound, "<p>/NOWHERE</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			body, _ := io.ReadAll(rec.Body)
			if rec.Code != tt.status || !strings.Contains(string(body), tt.want) {
				t.Errorf("got %d %q", rec.Code, body)
			}
		})
	}
}
