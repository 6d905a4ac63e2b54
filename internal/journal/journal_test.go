package journal_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docriver/internal/journal"
	"github.com/JaimeStill/docriver/pkg/pagination"
	"github.com/JaimeStill/docriver/pkg/routes"
	"github.com/JaimeStill/docriver/pkg/submission"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSystem struct {
	entries  []journal.Entry
	page     pagination.PageRequest
	filters  journal.Filters
	purged   time.Time
	recorded []journal.RecordCommand
	err      error
}

func (f *fakeSystem) Handler() *journal.Handler {
	return journal.NewHandler(f, discard, pagination.Config{DefaultPageSize: 10, MaxPageSize: 50})
}

func (f *fakeSystem) Record(_ context.Context, cmd journal.RecordCommand) (*journal.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.recorded = append(f.recorded, cmd)
	return &journal.Entry{ID: uuid.New(), Realm: cmd.Realm, Kind: cmd.Outcome.Kind.String()}, nil
}

func (f *fakeSystem) List(_ context.Context, page pagination.PageRequest, filters journal.Filters) (*pagination.PageResult[journal.Entry], error) {
	f.page, f.filters = page, filters
	r := pagination.NewPageResult(f.entries, len(f.entries), page.Page, page.PageSize)
	return &r, nil
}

func (f *fakeSystem) Find(_ context.Context, id uuid.UUID) (*journal.Entry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, journal.ErrNotFound
}

func (f *fakeSystem) Purge(_ context.Context, before time.Time) (int64, error) {
	f.purged = before
	return int64(len(f.entries)), nil
}

func serve(sys journal.System) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

func TestFiltersFromQuery(t *testing.T) {
	from := "2026-01-02T03:04:05Z"

	f, err := journal.FiltersFromQuery(url.Values{
		"realm": {"p123456"},
		"kind":  {"rejected"},
		"from":  {from},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Realm != "p123456" || f.Kind != "rejected" || f.Tx != "" {
		t.Errorf("filters: got %+v", f)
	}
	if want, _ := time.Parse(time.RFC3339, from); !f.From.Equal(want) {
		t.Errorf("from: got %v, want %v", f.From, want)
	}
	if !f.To.IsZero() {
		t.Errorf("to: got %v, want zero", f.To)
	}

	_, err = journal.FiltersFromQuery(url.Values{"to": {"yesterday"}})
	if !errors.Is(err, journal.ErrInvalid) {
		t.Errorf("bad time: got %v, want ErrInvalid", err)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{journal.ErrNotFound, http.StatusNotFound},
		{journal.ErrDuplicate, http.StatusConflict},
		{journal.ErrInvalidID, http.StatusBadRequest},
		{journal.ErrInvalid, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := journal.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHandlerList(t *testing.T) {
	sys := &fakeSystem{entries: []journal.Entry{{ID: uuid.New(), Realm: "p1", Kind: "success"}}}
	mux := serve(sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/history?realm=p1&page_size=500&sort=-createdAt", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body)
	}

	var body pagination.PageResult[journal.Entry]
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || len(body.Data) != 1 {
		t.Errorf("page: got %+v", body)
	}
	if sys.page.PageSize != 50 {
		t.Errorf("page size not clamped: got %d", sys.page.PageSize)
	}
	if sys.filters.Realm != "p1" {
		t.Errorf("realm filter: got %q", sys.filters.Realm)
	}
	if len(sys.page.Sort) != 1 || !sys.page.Sort[0].Descending {
		t.Errorf("sort: got %+v", sys.page.Sort)
	}
}

func TestHandlerFind(t *testing.T) {
	id := uuid.New()
	mux := serve(&fakeSystem{entries: []journal.Entry{{ID: id, Realm: "p1"}}})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/history/" + id.String(), http.StatusOK},
		{"missing", "/history/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/history/nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status: got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerPurge(t *testing.T) {
	sys := &fakeSystem{entries: []journal.Entry{{}, {}}}
	mux := serve(sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/history?before=2026-06-01T00:00:00Z", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if sys.purged.Month() != time.June {
		t.Errorf("cutoff: got %v", sys.purged)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/history", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing cutoff: got %d", rec.Code)
	}
}

func TestListener(t *testing.T) {
	sys := &fakeSystem{}
	listen := journal.Listener(sys, "p123456", discard)

	outcome := submission.Outcome{
		Kind:    submission.KindSuccess,
		Status:  200,
		Receipt: &submission.Receipt{Tx: "T1", Documents: []submission.DocumentRef{{Document: "a.pdf"}}},
	}
	listen(context.Background(), &submission.Event{Type: submission.EventResult, Outcome: outcome})

	if len(sys.recorded) != 1 {
		t.Fatalf("recorded: got %d", len(sys.recorded))
	}
	if got := sys.recorded[0]; got.Realm != "p123456" || got.Outcome.Receipt.Tx != "T1" {
		t.Errorf("command: got %+v", got)
	}

	sys.err = errors.New("db down")
	e := &submission.Event{Type: submission.EventError, Outcome: submission.Outcome{Kind: submission.KindTimedOut}}
	listen(context.Background(), e)
}
