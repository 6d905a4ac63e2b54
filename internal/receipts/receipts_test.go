package receipts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/docriver/internal/receipts"
	"github.com/JaimeStill/docriver/pkg/lifecycle"
	"github.com/JaimeStill/docriver/pkg/routes"
	"github.com/JaimeStill/docriver/pkg/storage"
	"github.com/JaimeStill/docriver/pkg/submission"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memStore struct {
	blobs map[string][]byte
	types map[string]string
	fail  error
}

func newMemStore() *memStore {
	return &memStore{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) Start(*lifecycle.Coordinator) error { return nil }

func (m *memStore) Upload(_ context.Context, key string, r io.Reader, _ int64, ct string) error {
	if m.fail != nil {
		return m.fail
	}
	if strings.Contains(key, "..") {
		return storage.ErrInvalidKey
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.blobs[key], m.types[key] = b, ct
	return nil
}

func (m *memStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if strings.Contains(key, "..") {
		return nil, storage.ErrInvalidKey
	}
	b, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.blobs, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.blobs[key]
	return ok, nil
}

func receipt() *submission.Receipt {
	raw := json.RawMessage(`{"tx":"T1","documents":[{"document":"a.pdf"}],"extra":true}`)
	return &submission.Receipt{Tx: "T1", Documents: []submission.DocumentRef{{Document: "a.pdf"}}, Raw: raw}
}

func TestStoreAndGet(t *testing.T) {
	store := newMemStore()
	a := receipts.New(store, discard)

	key, err := a.Store(context.Background(), "p123456", receipt())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if key != "receipts/p123456/T1.json" {
		t.Errorf("key: got %q", key)
	}
	if store.types[key] != "application/json" {
		t.Errorf("content type: got %q", store.types[key])
	}

	body, err := a.Get(context.Background(), "p123456", "T1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(string(body), `"extra":true`) {
		t.Errorf("raw body not preserved: %s", body)
	}

	if _, err := a.Get(context.Background(), "p123456", "T2"); !errors.Is(err, receipts.ErrNotFound) {
		t.Errorf("missing: got %v, want ErrNotFound", err)
	}
	if _, err := a.Store(context.Background(), "p1", &submission.Receipt{}); !errors.Is(err, receipts.ErrMissingTx) {
		t.Errorf("no tx: got %v, want ErrMissingTx", err)
	}
}

func TestListener(t *testing.T) {
	store := newMemStore()
	listen := receipts.New(store, discard).Listener("p1")

	listen(context.Background(), &submission.Event{
		Type:    submission.EventError,
		Outcome: submission.Outcome{Kind: submission.KindRejected, Status: 500},
	})
	if len(store.blobs) != 0 {
		t.Fatalf("error event archived: %v", store.blobs)
	}

	listen(context.Background(), &submission.Event{
		Type:    submission.EventResult,
		Outcome: submission.Outcome{Kind: submission.KindSuccess, Status: 200, Receipt: receipt()},
	})
	if _, ok := store.blobs["receipts/p1/T1.json"]; !ok {
		t.Errorf("receipt not archived: %v", store.blobs)
	}

	store.fail = errors.New("offline")
	listen(context.Background(), &submission.Event{
		Type:    submission.EventResult,
		Outcome: submission.Outcome{Kind: submission.KindSuccess, Receipt: receipt()},
	})
}

func TestRoutes(t *testing.T) {
	store := newMemStore()
	a := receipts.New(store, discard)
	if _, err := a.Store(context.Background(), "p1", receipt()); err != nil {
		t.Fatal(err)
	}

	mux := http.NewServeMux()
	routes.Register(mux, a.Routes())

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/receipts/p1/T1", http.StatusOK},
		{"missing", "/receipts/p1/T9", http.StatusNotFound},
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

func TestMapHTTPStatus(t *testing.T) {
	if got := receipts.MapHTTPStatus(storage.ErrInvalidKey); got != http.StatusBadRequest {
		t.Errorf("invalid key: got %d", got)
	}
	if got := receipts.MapHTTPStatus(errors.New("x")); got != http.StatusBadGateway {
		t.Errorf("other: got %d", got)
	}
}
