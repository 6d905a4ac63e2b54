// Package pubsub publishes JSON envelopes to a RabbitMQ topic exchange.
package pubsub

import (
	"time"

	"github.com/google/uuid"
)

// Meta identifies and correlates a published message.
type Meta struct {
	ID            string    `json:"id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

// Envelope wraps event data with its metadata.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope creates an envelope of eventType with a fresh message id.
func NewEnvelope(eventType, producer string, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:       uuid.NewString(),
			Producer: producer,
			Time:     time.Now().UTC(),
			Type:     eventType,
		},
		Data: data,
	}
}

// WithCorrelation returns a copy of e carrying correlationID.
func (e Envelope) WithCorrelation(correlationID string) Envelope {
	e.Meta.CorrelationID = correlationID
	return e
}
