package scalar_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/docriver/web/scalar"
)

func TestModule(t *testing.T) {
	m, err := scalar.NewModule("/scalar", "/api/openapi.json")
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"index", "/scalar", http.StatusOK},
		{"index slash", "/scalar/", http.StatusOK},
		{"unknown", "/scalar/missing.js", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.ServeHTTP(rec, httptest.NewRequest("GET", tt.target, nil))
			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.status)
			}
		})
	}

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/scalar/", nil))
	if !strings.Contains(rec.Body.String(), `data-url="/api/openapi.json"`) {
		t.Errorf("spec url missing from page: %s", rec.Body)
	}
}
