package api

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docriver/pkg/handlers"
	"github.com/JaimeStill/docriver/pkg/openapi"
	"github.com/JaimeStill/docriver/pkg/routes"
)

var (
	errJournalDisabled  = errors.New("journal database not configured")
	errReceiptsDisabled = errors.New("receipt storage not configured")
)

// Status is the body of GET /status.
type Status struct {
	Realm   string   `json:"realm"`
	Version string   `json:"version"`
	Ready   bool     `json:"ready"`
	Sinks   []string `json:"sinks"`
}

func registerRoutes(mux *http.ServeMux, domain *Domain, rt *Runtime) error {
	groups := []routes.Group{
		newDocumentsHandler(domain.Documents, rt.Logger).routes(),
	}

	if domain.Journal != nil {
		groups = append(groups, domain.Journal.Handler().Routes())
	} else {
		groups = append(groups, unavailable("/history", rt, errJournalDisabled))
	}

	if domain.Receipts != nil {
		groups = append(groups, domain.Receipts.Routes())
	} else {
		groups = append(groups, unavailable("/receipts", rt, errReceiptsDisabled))
	}

	spec, err := openapi.Handler(buildSpec(rt))
	if err != nil {
		return err
	}

	groups = append(groups, routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/openapi.json", Handler: spec},
			{Method: "GET", Pattern: "/status", Handler: func(w http.ResponseWriter, r *http.Request) {
				sinks := domain.Sinks
				if sinks == nil {
					sinks = []string{}
				}
				handlers.RespondJSON(w, http.StatusOK, Status{
					Realm:   rt.Realm,
					Version: rt.Version,
					Ready:   rt.Lifecycle != nil && rt.Lifecycle.Ready(),
					Sinks:   sinks,
				})
			}},
		},
	})

	routes.Register(mux, groups...)
	return nil
}

func unavailable(prefix string, rt *Runtime, err error) routes.Group {
	respond := func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondError(w, rt.Logger, http.StatusServiceUnavailable, err)
	}
	return routes.Group{
		Prefix: prefix,
		Routes: []routes.Route{
			{Pattern: "/", Handler: respond},
			{Pattern: "", Handler: respond},
		},
	}
}
