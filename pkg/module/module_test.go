package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/docriver/pkg/module"
)

func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	})
}

func TestNewValidatesPrefix(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"/api", false},
		{"", true},
		{"api", true},
		{"/", true},
		{"/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			_, err := module.New(tt.prefix, echo())
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	api, err := module.New("/api", echo())
	if err != nil {
		t.Fatal(err)
	}

	var hits int
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			next.ServeHTTP(w, r)
		})
	})

	router := module.NewRouter()
	if err := router.Mount(api); err != nil {
		t.Fatal(err)
	}
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		path string
		want string
	}{
		{"/api/history", "/history"},
		{"/api/history/", "/history"},
		{"/api", "/"},
		{"/healthz", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Body.String() != tt.want {
				t.Errorf("got %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}

	if hits != 3 {
		t.Errorf("module middleware hits: got %d, want 3", hits)
	}

	dup, _ := module.New("/api", echo())
	if err := router.Mount(dup); err == nil {
		t.Error("expected error mounting duplicate prefix")
	}
	if p := router.Prefixes(); len(p) != 1 || p[0] != "/api" {
		t.Errorf("prefixes: got %v", p)
	}
}
