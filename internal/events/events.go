// Package events publishes submission outcomes to the message broker so
// downstream services can follow uploads without polling the document
// server.
package events

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/docriver/pkg/pubsub"
	"github.com/JaimeStill/docriver/pkg/submission"
)

// Producer names this service in published envelopes.
const Producer = "docriver"

// Envelope types, versioned independently of routing keys.
const (
	TypeResult = "docriver.submission.result.v1"
	TypeError  = "docriver.submission.error.v1"
)

// Payload is the data of a published outcome.
type Payload struct {
	Realm     string              `json:"realm"`
	Kind      string              `json:"kind"`
	Status    int                 `json:"status,omitempty"`
	Message   string              `json:"message,omitempty"`
	Receipt   *submission.Receipt `json:"receipt,omitempty"`
	Documents []string            `json:"documents,omitempty"`
}

// NewPayload projects o for realm.
func NewPayload(realm string, o submission.Outcome) Payload {
	p := Payload{
		Realm:   realm,
		Kind:    o.Kind.String(),
		Status:  o.Status,
		Message: o.Reason(),
		Receipt: o.Receipt,
	}
	if o.Receipt != nil {
		for _, d := range o.Receipt.Documents {
			p.Documents = append(p.Documents, d.Document)
		}
	}
	return p
}

// Listener publishes each result and error event under cfg.Key of the event
// type, correlated by the receipt's transaction id when one exists.
func Listener(pub pubsub.Publisher, cfg *pubsub.Config, realm string, logger *slog.Logger) submission.Listener {
	logger = logger.With("system", "events", "realm", realm)

	return func(ctx context.Context, e *submission.Event) {
		typ := TypeError
		if e.Outcome.Success() {
			typ = TypeResult
		}

		env := pubsub.NewEnvelope(typ, Producer, NewPayload(realm, e.Outcome))
		if r := e.Outcome.Receipt; r != nil && r.Tx != "" {
			env = env.WithCorrelation(r.Tx)
		}

		if err := pub.Publish(context.WithoutCancel(ctx), cfg.Key(e.Type), env); err != nil {
			logger.WarnContext(ctx, "publish outcome failed", "event", e.Type, "error", err)
		}
	}
}
