package submission

import "encoding/json"

// Kind classifies the terminal result of a submission.
type Kind int

const (
	KindSuccess Kind = iota
	KindRejected
	KindNetworkFailure
	KindTimedOut
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRejected:
		return "rejected"
	case KindNetworkFailure:
		return "network_failure"
	case KindTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// DocumentRef identifies one document accepted by the backend.
type DocumentRef struct {
	Document string `json:"document"`
}

// Receipt is the backend's success response. Raw keeps the complete JSON
// body so listeners see fields this package does not model.
type Receipt struct {
	Tx        string          `json:"tx"`
	Documents []DocumentRef   `json:"documents"`
	Raw       json.RawMessage `json:"-"`
}

// MarshalJSON emits the original response body when available.
func (r Receipt) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	type plain Receipt
	return json.Marshal(plain(r))
}

// Outcome is the single terminal result of a submission.
// Receipt is set for KindSuccess; Message carries the rejection body or
// failure description for the error kinds.
type Outcome struct {
	Kind    Kind
	Receipt *Receipt
	Status  int
	Message string
}

// Success reports whether the outcome is KindSuccess.
func (o Outcome) Success() bool {
	return o.Kind == KindSuccess
}

// EventType returns the notification name for the outcome.
func (o Outcome) EventType() string {
	if o.Kind == KindSuccess {
		return EventResult
	}
	return EventError
}

// Reason returns the host-facing failure text; empty on success.
func (o Outcome) Reason() string {
	switch o.Kind {
	case KindSuccess:
		return ""
	case KindTimedOut:
		return "document submission timed out"
	default:
		return o.Message
	}
}

func succeeded(status int, receipt *Receipt) Outcome {
	return Outcome{Kind: KindSuccess, Status: status, Receipt: receipt}
}

func rejected(status int, body string) Outcome {
	return Outcome{Kind: KindRejected, Status: status, Message: body}
}

func networkFailure(description string) Outcome {
	return Outcome{Kind: KindNetworkFailure, Message: description}
}

func timedOut() Outcome {
	return Outcome{Kind: KindTimedOut}
}
