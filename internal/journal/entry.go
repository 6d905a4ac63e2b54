// Package journal records every submission outcome in PostgreSQL and
// serves the resulting history. Entries are written by a result/error
// listener and never block the default rendering of an outcome.
package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docriver/pkg/submission"
)

// Entry is one recorded outcome. Tx and Status are nil for outcomes that
// never reached the backend.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Realm     string    `json:"realm"`
	Tx        *string   `json:"tx"`
	Kind      string    `json:"kind"`
	Status    *int      `json:"status"`
	Message   string    `json:"message"`
	Documents []string  `json:"documents"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordCommand carries an outcome into the journal.
type RecordCommand struct {
	Realm   string
	Outcome submission.Outcome
}

func (c RecordCommand) args(id uuid.UUID) []any {
	o := c.Outcome

	var (
		tx     *string
		status *int
		docs   = []string{}
	)
	if o.Receipt != nil {
		if o.Receipt.Tx != "" {
			tx = &o.Receipt.Tx
		}
		for _, d := range o.Receipt.Documents {
			docs = append(docs, d.Document)
		}
	}
	if o.Status != 0 {
		status = &o.Status
	}

	return []any{id, c.Realm, tx, o.Kind.String(), status, o.Reason(), docs}
}
