package journal

import (
	"fmt"
	"net/url"
	"time"

	"github.com/JaimeStill/docriver/pkg/query"
	"github.com/JaimeStill/docriver/pkg/repository"
)

var projection = query.
	NewProjection("public", "submissions", "s").
	Project("id", "id").
	Project("realm", "realm").
	Project("tx", "tx").
	Project("kind", "kind").
	Project("status", "status").
	Project("message", "message").
	Project("documents", "documents").
	Project("created_at", "createdAt")

var defaultSort = query.SortField{Field: "createdAt", Descending: true}

// Filters narrows a history listing. Zero values are ignored; From is
// inclusive and To exclusive.
type Filters struct {
	Realm string    `json:"realm,omitempty"`
	Kind  string    `json:"kind,omitempty"`
	Tx    string    `json:"tx,omitempty"`
	From  time.Time `json:"from,omitzero"`
	To    time.Time `json:"to,omitzero"`
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("realm", f.Realm).
		WhereEquals("kind", f.Kind).
		WhereEquals("tx", f.Tx).
		WhereSince("createdAt", f.From).
		WhereBefore("createdAt", f.To)
}

// FiltersFromQuery reads realm, kind, tx, from and to. Times are RFC 3339.
func FiltersFromQuery(values url.Values) (Filters, error) {
	f := Filters{
		Realm: values.Get("realm"),
		Kind:  values.Get("kind"),
		Tx:    values.Get("tx"),
	}

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &f.From},
		{"to", &f.To},
	} {
		v := values.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Filters{}, fmt.Errorf("%w: %s: %v", ErrInvalid, p.name, err)
		}
		*p.dst = t
	}
	return f, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.Realm,
		&e.Tx,
		&e.Kind,
		&e.Status,
		&e.Message,
		&e.Documents,
		&e.CreatedAt,
	)
	return e, err
}
