package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/docriver/pkg/routes"
)

func TestRegister(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(r.Pattern)) }

	mux := http.NewServeMux()
	patterns := routes.Register(mux, routes.Group{
		Prefix: "/history",
		Routes: []routes.Route{
			{Method: "get", Pattern: "", Handler: ok},
			{Method: "GET", Pattern: "/{id}", Handler: ok},
		},
		Children: []routes.Group{{
			Prefix: "/realms",
			Routes: []routes.Route{{Method: "GET", Pattern: "/{realm}", Handler: ok}},
		}},
	})

	want := []string{"GET /history", "GET /history/{id}", "GET /history/realms/{realm}"}
	if !slices.Equal(patterns, want) {
		t.Fatalf("patterns: got %v, want %v", patterns, want)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/realms/r1", nil))
	if rec.Body.String() != "GET /history/realms/{realm}" {
		t.Errorf("matched %q", rec.Body.String())
	}
}
