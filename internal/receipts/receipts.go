// Package receipts archives backend receipts of successful submissions to
// blob storage and reads them back by realm and transaction.
package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docriver/pkg/handlers"
	"github.com/JaimeStill/docriver/pkg/routes"
	"github.com/JaimeStill/docriver/pkg/storage"
	"github.com/JaimeStill/docriver/pkg/submission"
)

const prefix = "receipts"

var (
	ErrNotFound  = errors.New("receipt not found")
	ErrMissingTx = errors.New("receipt has no transaction id")
)

// MapHTTPStatus maps archive errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMissingTx):
		return http.StatusBadRequest
	default:
		return storage.MapHTTPStatus(err)
	}
}

// Key returns the blob key of the receipt for tx in realm.
func Key(realm, tx string) string {
	return prefix + "/" + realm + "/" + tx + ".json"
}

// Archive stores and retrieves receipts.
type Archive struct {
	store  storage.System
	logger *slog.Logger
}

// New creates an Archive over store.
func New(store storage.System, logger *slog.Logger) *Archive {
	return &Archive{
		store:  store,
		logger: logger.With("system", "receipts"),
	}
}

// Store writes r under its transaction id and returns the blob key.
func (a *Archive) Store(ctx context.Context, realm string, r *submission.Receipt) (string, error) {
	if r == nil || r.Tx == "" {
		return "", ErrMissingTx
	}

	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal receipt: %w", err)
	}

	key := Key(realm, r.Tx)
	if err := a.store.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	a.logger.InfoContext(ctx, "receipt archived", "key", key, "documents", len(r.Documents))
	return key, nil
}

// Get returns the archived receipt body for tx in realm.
func (a *Archive) Get(ctx context.Context, realm, tx string) (json.RawMessage, error) {
	key := Key(realm, tx)

	rc, err := a.store.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}

// Listener archives the receipt of every result event for realm. Failures
// are logged and never reach the event.
func (a *Archive) Listener(realm string) submission.Listener {
	return func(ctx context.Context, e *submission.Event) {
		if !e.Outcome.Success() {
			return
		}
		if _, err := a.Store(context.WithoutCancel(ctx), realm, e.Outcome.Receipt); err != nil {
			a.logger.WarnContext(ctx, "archive receipt failed", "realm", realm, "error", err)
		}
	}
}

// Routes exposes GET /receipts/{realm}/{tx}.
func (a *Archive) Routes() routes.Group {
	return routes.Group{
		Prefix: "/receipts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{realm}/{tx}", Handler: a.handleGet},
		},
	}
}

func (a *Archive) handleGet(w http.ResponseWriter, r *http.Request) {
	body, err := a.Get(r.Context(), r.PathValue("realm"), r.PathValue("tx"))
	if err != nil {
		handlers.RespondError(w, a.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
