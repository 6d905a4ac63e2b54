package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/handlers"
	"github.com/JaimeStill/docriver/pkg/routes"
)

var errInvalidRange = errors.New("from and to must be RFC 3339 times")

// documentsHandler relays reads to the document server, forwarding the
// caller's Authorization header.
type documentsHandler struct {
	client *docriver.Client
	logger *slog.Logger
}

func newDocumentsHandler(client *docriver.Client, logger *slog.Logger) *documentsHandler {
	return &documentsHandler{
		client: client,
		logger: logger.With("handler", "documents"),
	}
}

func (h *documentsHandler) routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/documents/{name}", Handler: h.download},
			{Method: "GET", Pattern: "/events", Handler: h.events},
		},
	}
}

func (h *documentsHandler) download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	doc, err := h.client.Document(r.Context(), name, r.Header.Get("Authorization"))
	if err != nil {
		handlers.RespondError(w, h.logger, mapDocriverStatus(err), err)
		return
	}
	defer doc.Body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	if doc.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+doc.Extension()))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, doc.Body)
}

func (h *documentsHandler) events(w http.ResponseWriter, r *http.Request) {
	var q docriver.EventQuery
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &q.From},
		{"to", &q.To},
	} {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidRange)
			return
		}
		*p.dst = t
	}

	events, err := h.client.Events(r.Context(), q, r.Header.Get("Authorization"))
	if err != nil {
		handlers.RespondError(w, h.logger, mapDocriverStatus(err), err)
		return
	}
	if events == nil {
		events = []docriver.Event{}
	}
	handlers.RespondJSON(w, http.StatusOK, events)
}

func mapDocriverStatus(err error) int {
	switch {
	case errors.Is(err, docriver.ErrMissingName):
		return http.StatusBadRequest
	case errors.Is(err, docriver.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docriver.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
