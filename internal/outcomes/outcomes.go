// Package outcomes attaches the optional outcome consumers (journal,
// receipt archive and event publisher) to a submission dispatcher.
package outcomes

import (
	"log/slog"

	"github.com/JaimeStill/docriver/internal/config"
	"github.com/JaimeStill/docriver/internal/events"
	"github.com/JaimeStill/docriver/internal/infrastructure"
	"github.com/JaimeStill/docriver/internal/journal"
	"github.com/JaimeStill/docriver/internal/receipts"
	"github.com/JaimeStill/docriver/pkg/pubsub"
	"github.com/JaimeStill/docriver/pkg/submission"
)

// Sinks holds the consumers available for the configured infrastructure.
// Journal and Receipts are nil when their backing system is not configured.
type Sinks struct {
	Journal  journal.System
	Receipts *receipts.Archive

	realm     string
	publisher pubsub.Publisher
	events    *pubsub.Config
	logger    *slog.Logger
}

// New builds the sinks for cfg over infra.
func New(cfg *config.Config, infra *infrastructure.Infrastructure) *Sinks {
	s := &Sinks{
		realm:     cfg.Submission.Realm,
		publisher: infra.Publisher,
		events:    &cfg.Events,
		logger:    infra.Logger,
	}
	if infra.Database != nil {
		s.Journal = journal.New(infra.Database.Pool(), infra.Logger, cfg.Web.Pagination)
	}
	if infra.Storage != nil {
		s.Receipts = receipts.New(infra.Storage, infra.Logger)
	}
	return s
}

// Attach registers every available sink for result and error events on d
// and returns a function removing them.
func (s *Sinks) Attach(d *submission.Dispatcher) (detach func()) {
	var removers []func()
	on := func(l submission.Listener, types ...string) {
		for _, t := range types {
			removers = append(removers, d.On(t, l))
		}
	}

	if s.Journal != nil {
		on(journal.Listener(s.Journal, s.realm, s.logger), submission.EventResult, submission.EventError)
	}
	if s.Receipts != nil {
		on(s.Receipts.Listener(s.realm), submission.EventResult)
	}
	if s.publisher != nil {
		on(events.Listener(s.publisher, s.events, s.realm, s.logger), submission.EventResult, submission.EventError)
	}

	return func() {
		for _, r := range removers {
			r()
		}
	}
}

// Enabled lists the names of the attached sinks.
func (s *Sinks) Enabled() []string {
	var names []string
	if s.Journal != nil {
		names = append(names, "journal")
	}
	if s.Receipts != nil {
		names = append(names, "receipts")
	}
	if s.events.Enabled() {
		names = append(names, "events")
	}
	return names
}
