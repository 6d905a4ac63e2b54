// Package render draws submission outcomes for terminals.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/JaimeStill/docriver/pkg/submission"
)

// Styles colors the parts of a rendered outcome.
type Styles struct {
	Summary lipgloss.Style
	Line    lipgloss.Style
	Alert   lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns the styles used by New, bound to r.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Summary: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00BFFF")),
		Line:    r.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).PaddingLeft(2),
		Alert:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F")),
		Label:   r.NewStyle().Foreground(lipgloss.Color("#FFD93D")),
	}
}

// TextView writes default renderings to a terminal. It satisfies
// submission.View and is safe for concurrent use.
type TextView struct {
	mu       sync.Mutex
	w        io.Writer
	renderer *lipgloss.Renderer
	styles   Styles
}

// New creates a TextView over w. Colors are dropped when w is not a terminal.
func New(w io.Writer) *TextView {
	r := lipgloss.NewRenderer(w)
	return &TextView{
		w:        w,
		renderer: r,
		styles:   DefaultStyles(r),
	}
}

// Renderer returns the renderer bound to the view's writer.
func (v *TextView) Renderer() *lipgloss.Renderer {
	return v.renderer
}

// Styles returns the view's styles.
func (v *TextView) Styles() Styles {
	return v.styles
}

// ShowResult writes the success summary followed by one line per document.
func (v *TextView) ShowResult(d submission.Description) {
	v.write(Result(v.styles, d))
}

// Alert writes message in the alert style.
func (v *TextView) Alert(message string) {
	v.write(v.styles.Alert.Render(message))
}

// Label writes the rendered uploader label.
func (v *TextView) Label(label string) {
	if label == "" {
		return
	}
	v.write(v.styles.Label.Render(label))
}

func (v *TextView) write(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintln(v.w, s)
}

// Result formats a success description.
func Result(s Styles, d submission.Description) string {
	lines := make([]string, 0, len(d.Lines)+1)
	lines = append(lines, s.Summary.Render(d.Summary))
	for _, l := range d.Lines {
		lines = append(lines, s.Line.Render(l))
	}
	return strings.Join(lines, "\n")
}

// Outcome formats o with its default presentation.
func Outcome(s Styles, o submission.Outcome) string {
	d := submission.Describe(o)
	if o.Success() {
		return Result(s, d)
	}
	return s.Alert.Render(d.Alert)
}
