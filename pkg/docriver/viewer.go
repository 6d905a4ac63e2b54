package docriver

import (
	"context"
	"net/url"
	"sync"
)

// DefaultTarget is the browsing context a viewer opens documents in.
const DefaultTarget = "_blank"

// ViewParams are the query parameters appended to a document URL.
type ViewParams map[string]string

// ViewHook supplies view parameters (typically an authorization token)
// before a document is opened. done must be called once.
type ViewHook func(ctx context.Context, document string, done func(ViewParams))

// Viewer links one stored document for display.
type Viewer struct {
	Client   *Client
	Document string
	Target   string
	Hook     ViewHook
}

// NewViewer creates a viewer for document.
func NewViewer(c *Client, document string, hook ViewHook) *Viewer {
	return &Viewer{
		Client:   c,
		Document: document,
		Target:   DefaultTarget,
		Hook:     hook,
	}
}

// URL builds the document URL carrying params. The authorization parameter
// is added only when present.
func (v *Viewer) URL(params ViewParams) string {
	u := v.Client.DocumentURL(v.Document)

	q := url.Values{}
	for k, val := range params {
		if k == "authorization" && val == "" {
			continue
		}
		q.Set(k, val)
	}
	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}

// Resolve runs the hook, if any, and returns the URL to open. It blocks
// until the hook calls done or ctx ends.
func (v *Viewer) Resolve(ctx context.Context) (string, error) {
	if v.Hook == nil {
		return v.URL(nil), nil
	}

	results := make(chan ViewParams, 1)
	var once sync.Once
	v.Hook(ctx, v.Document, func(p ViewParams) {
		once.Do(func() { results <- p })
	})

	select {
	case p := <-results:
		return v.URL(p), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
