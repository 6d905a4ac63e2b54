// Package infrastructure assembles the systems shared by drc and the
// server: logging, lifecycle coordination, the outbound HTTP client, and
// the optional journal database, receipt store and event publisher.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docriver/internal/config"
	"github.com/JaimeStill/docriver/pkg/database"
	"github.com/JaimeStill/docriver/pkg/lifecycle"
	"github.com/JaimeStill/docriver/pkg/pubsub"
	"github.com/JaimeStill/docriver/pkg/storage"
)

// Infrastructure holds the core systems. Database and Storage are nil when
// their sections are not configured; Publisher falls back to a logging
// no-op without a broker.
type Infrastructure struct {
	Lifecycle  *lifecycle.Coordinator
	Logger     *slog.Logger
	HTTPClient *http.Client
	Database   database.System
	Storage    storage.System
	Publisher  pubsub.Publisher
}

// NewLogger builds the root logger for cfg writing to w.
func NewLogger(cfg *config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New creates the infrastructure for cfg. Systems are created but not
// started; the broker connection is the exception since dialing it is how
// the publisher is created.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Log, logOut)

	infra := &Infrastructure{
		Lifecycle:  lifecycle.New(ctx),
		Logger:     logger,
		HTTPClient: &http.Client{},
	}

	if cfg.Journal.Enabled() {
		db, err := database.New(&cfg.Journal, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.Receipts.Enabled() {
		store, err := storage.New(&cfg.Receipts, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	if cfg.Events.Enabled() {
		pub, err := pubsub.New(&cfg.Events, logger)
		if err != nil {
			return nil, fmt.Errorf("publisher init failed: %w", err)
		}
		infra.Publisher = pub
	} else {
		infra.Publisher = pubsub.NewFallback(logger)
	}

	return infra, nil
}

// Start registers the configured systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	pubsub.Register(i.Lifecycle, i.Publisher, i.Logger)
	return nil
}
