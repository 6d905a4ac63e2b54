package uploader

import (
	"net/url"

	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/submission"
)

// Page is the data of the uploader form.
type Page struct {
	Label   string
	Realm   string
	Hidden  []submission.Field
	Results []Result
	Alerts  []string
	Target  string
}

// Result is one rendered success in the result area.
type Result struct {
	Summary   string
	Tx        string
	Documents []Link
}

// Link opens a stored document through the viewer route.
type Link struct {
	Text     string
	Document string
	Href     string
}

func (u *Uploader) page(metadata submission.Metadata) Page {
	var hidden []submission.Field
	for _, f := range metadata.Fields() {
		if f.Name == submission.FieldAuthorization {
			continue
		}
		hidden = append(hidden, f)
	}

	return Page{
		Label:  submission.RenderLabel(u.cfg.Label, metadata.Values()),
		Realm:  u.cfg.Realm,
		Hidden: hidden,
		Target: docriver.DefaultTarget,
	}
}

// results pairs each rendered success line with the receipt document it
// names; Describe emits one line per receipt document in order.
func (u *Uploader) results(entries []submission.Description, receipt *submission.Receipt) []Result {
	var out []Result
	for _, d := range entries {
		res := Result{Summary: d.Summary, Tx: d.Tx}
		for i, line := range d.Lines {
			if receipt == nil || i >= len(receipt.Documents) {
				break
			}
			doc := receipt.Documents[i].Document
			res.Documents = append(res.Documents, Link{
				Text:     line,
				Document: doc,
				Href:     u.pages.BasePath() + "/view/" + url.PathEscape(doc),
			})
		}
		out = append(out, res)
	}
	return out
}
