package render_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/docriver/internal/render"
	"github.com/JaimeStill/docriver/pkg/submission"
)

var _ submission.View = (*render.TextView)(nil)

func TestTextView(t *testing.T) {
	var buf bytes.Buffer
	v := render.New(&buf)

	v.ShowResult(submission.Describe(submission.Outcome{
		Kind: submission.KindSuccess,
		Receipt: &submission.Receipt{
			Tx:        "T1",
			Documents: []submission.DocumentRef{{Document: "a.pdf"}, {Document: "b.pdf"}},
		},
	}))
	v.Alert("Document submission timed out")
	v.Label("")

	out := buf.String()
	for _, want := range []string{
		"2 document(s) submitted. Transaction Reference: T1",
		"Document 1: a.pdf",
		"Document 2: b.pdf",
		"Document submission timed out",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 4 {
		t.Errorf("lines: got %d, want 4\n%s", n, out)
	}
}

func TestOutcome(t *testing.T) {
	styles := render.DefaultStyles(render.New(&bytes.Buffer{}).Renderer())

	tests := []struct {
		name    string
		outcome submission.Outcome
		want    string
	}{
		{"rejected", submission.Outcome{Kind: submission.KindRejected, Status: 400, Message: "bad"}, "Document(s) rejected. Error: bad"},
		{"network", submission.Outcome{Kind: submission.KindNetworkFailure, Message: "refused"}, "Error while submitting documents: refused"},
		{"success", submission.Outcome{Kind: submission.KindSuccess, Receipt: &submission.Receipt{Tx: "T9"}}, "0 document(s) submitted. Transaction Reference: T9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render.Outcome(styles, tt.outcome); !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	v := render.New(&buf)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() { v.Alert("x") })
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "x\n"); got != 8 {
		t.Errorf("alerts: got %d, want 8", got)
	}
}
