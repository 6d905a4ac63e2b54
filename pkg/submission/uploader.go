package submission

import (
	"context"
	"sync/atomic"
)

// Uploader is one embedded uploader instance: a controller bound to its own
// form and result area. Multiple uploaders on the same host are independent.
type Uploader struct {
	ctrl    *Controller
	form    *Form
	results *Results
	removed atomic.Bool
}

// NewUploader creates an uploader whose form carries cfg.Metadata and whose
// default renderings land in an in-memory result area. A WithView option
// replaces that result area.
func NewUploader(cfg *Config, opts ...Option) (*Uploader, error) {
	results := NewResults(nil)
	opts = append([]Option{WithView(results)}, opts...)

	ctrl, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &Uploader{
		ctrl:    ctrl,
		form:    NewForm(cfg.Metadata),
		results: results,
	}, nil
}

// Controller returns the uploader's submission controller.
func (u *Uploader) Controller() *Controller {
	return u.ctrl
}

// Form returns the uploader's form.
func (u *Uploader) Form() *Form {
	return u.form
}

// Results returns the in-memory result area.
func (u *Uploader) Results() *Results {
	return u.results
}

// Events returns the uploader's notification dispatcher.
func (u *Uploader) Events() *Dispatcher {
	return u.ctrl.Events()
}

// Label returns the rendered prompt label.
func (u *Uploader) Label() string {
	return RenderLabel(u.ctrl.Config().Label, u.form.Metadata().Values())
}

// Submit submits the current form contents.
func (u *Uploader) Submit(ctx context.Context) (Outcome, error) {
	if u.removed.Load() {
		return Outcome{}, ErrRemoved
	}
	return u.ctrl.Submit(ctx, u.form)
}

// Reset clears the form input and the result area. Calling it repeatedly is harmless.
func (u *Uploader) Reset() {
	u.form.Reset()
	u.results.Clear()
}

// Remove detaches the uploader: listeners are dropped and later submissions
// fail with ErrRemoved. A submission already in flight still completes but
// renders nothing.
func (u *Uploader) Remove() {
	if u.removed.Swap(true) {
		return
	}
	u.ctrl.Events().Clear()
	u.ctrl.detach()
	u.Reset()
}
