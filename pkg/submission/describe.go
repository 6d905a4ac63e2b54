package submission

import (
	"fmt"
	"sync"
)

// Description is the renderer-agnostic presentation of an outcome.
// Success outcomes populate Summary and Lines; error kinds populate Alert.
type Description struct {
	Kind    Kind
	Tx      string
	Summary string
	Lines   []string
	Alert   string
}

// Describe converts an outcome into its default presentation.
func Describe(o Outcome) Description {
	d := Description{Kind: o.Kind}

	switch o.Kind {
	case KindSuccess:
		var docs []DocumentRef
		if o.Receipt != nil {
			d.Tx = o.Receipt.Tx
			docs = o.Receipt.Documents
		}
		d.Summary = fmt.Sprintf("%d document(s) submitted. Transaction Reference: %s", len(docs), d.Tx)
		d.Lines = make([]string, len(docs))
		for i, doc := range docs {
			d.Lines[i] = fmt.Sprintf("Document %d: %s", i+1, doc.Document)
		}
	case KindRejected:
		d.Alert = "Document(s) rejected. Error: " + o.Message
	case KindNetworkFailure:
		d.Alert = "Error while submitting documents: " + o.Message
	case KindTimedOut:
		d.Alert = "Document submission timed out"
	}

	return d
}

// View applies default renderings. ShowResult appends a success summary to
// the result area; Alert surfaces an error message to the user.
type View interface {
	ShowResult(d Description)
	Alert(message string)
}

// Results is an in-memory result area. It records rendered successes and
// alerts, forwarding alerts to an optional callback.
type Results struct {
	mu      sync.Mutex
	entries []Description
	alerts  []string
	onAlert func(string)
}

// NewResults creates an empty result area; onAlert may be nil.
func NewResults(onAlert func(string)) *Results {
	return &Results{onAlert: onAlert}
}

func (r *Results) ShowResult(d Description) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, d)
}

func (r *Results) Alert(message string) {
	r.mu.Lock()
	r.alerts = append(r.alerts, message)
	onAlert := r.onAlert
	r.mu.Unlock()

	if onAlert != nil {
		onAlert(message)
	}
}

// Entries returns the rendered success descriptions.
func (r *Results) Entries() []Description {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Description, len(r.entries))
	copy(out, r.entries)
	return out
}

// Alerts returns the alert messages shown so far.
func (r *Results) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// Lines flattens the result area into display lines.
func (r *Results) Lines() []string {
	var lines []string
	for _, d := range r.Entries() {
		lines = append(lines, d.Summary)
		lines = append(lines, d.Lines...)
	}
	return lines
}

// Empty reports whether nothing has been rendered.
func (r *Results) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries) == 0 && len(r.alerts) == 0
}

// Clear empties the result area.
func (r *Results) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.alerts = nil
}
