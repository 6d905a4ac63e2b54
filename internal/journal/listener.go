package journal

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/docriver/pkg/submission"
)

// Recorder is the part of System the listener needs.
type Recorder interface {
	Record(ctx context.Context, cmd RecordCommand) (*Entry, error)
}

// Listener records every result and error event for realm. A failed write
// is logged; the event is left untouched either way.
func Listener(rec Recorder, realm string, logger *slog.Logger) submission.Listener {
	logger = logger.With("system", "journal", "realm", realm)

	return func(ctx context.Context, e *submission.Event) {
		cmd := RecordCommand{Realm: realm, Outcome: e.Outcome}
		if _, err := rec.Record(context.WithoutCancel(ctx), cmd); err != nil {
			logger.WarnContext(ctx, "record outcome failed", "event", e.Type, "error", err)
		}
	}
}
