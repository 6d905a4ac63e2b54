package api

import (
	"github.com/JaimeStill/docriver/internal/journal"
	"github.com/JaimeStill/docriver/internal/outcomes"
	"github.com/JaimeStill/docriver/internal/receipts"
	"github.com/JaimeStill/docriver/pkg/docriver"
)

// Domain holds the systems behind the API. Journal and Receipts are nil
// when their backing systems are not configured.
type Domain struct {
	Journal   journal.System
	Receipts  *receipts.Archive
	Documents *docriver.Client
	Sinks     []string
}

// NewDomain creates the domain systems from the API runtime.
func NewDomain(runtime *Runtime, sinks *outcomes.Sinks) *Domain {
	d := &Domain{
		Documents: docriver.NewClient(runtime.DocServer, runtime.Realm, runtime.HTTPClient),
	}
	if sinks != nil {
		d.Journal = sinks.Journal
		d.Receipts = sinks.Receipts
		d.Sinks = sinks.Enabled()
	}
	return d
}
