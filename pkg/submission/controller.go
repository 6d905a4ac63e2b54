// Package submission implements the docriver submission lifecycle: it turns a
// populated form into exactly one transaction request and exactly one outcome,
// reported through a cancelable notification before any default rendering.
//
// A submission moves through
//
//	Idle → Validating → [Enriching] → Sending → Completed → Notifying → Idle
//
// and returns to Idle directly when validation or enrichment fails locally.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// State is a step of the submission lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateEnriching
	StateSending
	StateCompleted
	StateNotifying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateEnriching:
		return "enriching"
	case StateSending:
		return "sending"
	case StateCompleted:
		return "completed"
	case StateNotifying:
		return "notifying"
	default:
		return "unknown"
	}
}

// Observer is notified of every state transition.
type Observer func(State)

// Controller runs submissions for one uploader. At most one submission is in
// flight at a time; a concurrent Submit fails with ErrSubmissionPending.
type Controller struct {
	cfg       Config
	timeout   time.Duration
	transport *Transport
	hook      Hook
	events    *Dispatcher
	view      View
	logger    *slog.Logger

	pending   atomic.Bool
	observeMu sync.RWMutex
	observers []Observer

	renderMu sync.Mutex
	detached bool
}

type options struct {
	client   *http.Client
	registry *Registry
	view     View
	parent   *Dispatcher
	logger   *slog.Logger
	hooks    []Hook
}

// Option customizes Controller construction.
type Option func(*options)

// WithHTTPClient sets the client used for transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithRegistry sets the registry used to resolve configured hook and listener names.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithView sets the view receiving default renderings.
func WithView(v View) Option {
	return func(o *options) { o.view = v }
}

// WithParent makes events bubble to a host dispatcher after local listeners run.
func WithParent(d *Dispatcher) Option {
	return func(o *options) { o.parent = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHook adds an enrichment hook that runs after the configured
// OnDocumentSubmit hook.
func WithHook(h Hook) Option {
	return func(o *options) { o.hooks = append(o.hooks, h) }
}

// New creates a Controller from a finalized config. Configured hook and
// listener names must be registered in the registry.
func New(cfg *Config, opts ...Option) (*Controller, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var hooks []Hook
	if cfg.OnDocumentSubmit != "" {
		h, err := o.registry.Hook(cfg.OnDocumentSubmit)
		if err != nil {
			return nil, fmt.Errorf("resolve on_document_submit: %w", err)
		}
		hooks = append(hooks, h)
	}
	hooks = append(hooks, o.hooks...)

	events := NewDispatcher(o.parent)
	if cfg.OnResult != "" {
		l, err := o.registry.Listener(cfg.OnResult)
		if err != nil {
			return nil, fmt.Errorf("resolve on_result: %w", err)
		}
		events.On(EventResult, l)
	}
	if cfg.OnError != "" {
		l, err := o.registry.Listener(cfg.OnError)
		if err != nil {
			return nil, fmt.Errorf("resolve on_error: %w", err)
		}
		events.On(EventError, l)
	}

	view := o.view
	if view == nil {
		view = NewResults(nil)
	}

	logger := o.logger.With("system", "submission", "realm", cfg.Realm)

	c := &Controller{
		cfg:       *cfg,
		timeout:   cfg.TimeoutDuration(),
		transport: NewTransport(cfg.Endpoint(), o.client, logger),
		events:    events,
		view:      view,
		logger:    logger,
	}

	switch len(hooks) {
	case 0:
	case 1:
		c.hook = hooks[0]
	default:
		c.hook = Chain(hooks...)
	}

	return c, nil
}

// Config returns the controller's configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Events returns the dispatcher notified of every outcome.
func (c *Controller) Events() *Dispatcher {
	return c.events
}

// Observe registers an observer for state transitions.
func (c *Controller) Observe(o Observer) {
	c.observeMu.Lock()
	defer c.observeMu.Unlock()
	c.observers = append(c.observers, o)
}

// Pending reports whether a submission is in flight.
func (c *Controller) Pending() bool {
	return c.pending.Load()
}

// Submit runs one submission of form. Local failures (validation, enrichment,
// a pending submission, or ctx ending during enrichment) are returned as
// errors and produce no notification. Otherwise exactly one outcome is
// dispatched and returned.
func (c *Controller) Submit(ctx context.Context, form *Form) (Outcome, error) {
	if !c.pending.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmissionPending
	}
	defer c.pending.Store(false)
	defer c.transition(StateIdle)

	c.transition(StateValidating)
	req, err := form.Request()
	if err != nil {
		c.logger.InfoContext(ctx, "submission blocked", "error", err)
		return Outcome{}, err
	}

	if c.hook != nil {
		c.transition(StateEnriching)
		if err := c.enrich(ctx, &req); err != nil {
			return Outcome{}, err
		}
	}

	c.transition(StateSending)
	start := time.Now()
	outcome := c.transport.Send(ctx, req, c.timeout)

	c.transition(StateCompleted)
	c.logOutcome(ctx, outcome, time.Since(start), len(req.Attachments()))

	c.transition(StateNotifying)
	c.notify(ctx, form, outcome)

	return outcome, nil
}

func (c *Controller) enrich(ctx context.Context, req *Request) error {
	e, err := await(ctx, c.hook, req.Clone())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.logger.WarnContext(ctx, "enrichment failed", "error", err)
		return fmt.Errorf("%w: %w", ErrEnrichmentFailed, err)
	}

	req.Merge(e)
	return req.Validate()
}

func (c *Controller) notify(ctx context.Context, form *Form, o Outcome) {
	if !c.events.Dispatch(ctx, NewEvent(o)) {
		c.logger.DebugContext(ctx, "default rendering prevented", "event", o.EventType())
		return
	}

	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if c.detached {
		c.logger.DebugContext(ctx, "uploader removed, rendering skipped", "event", o.EventType())
		return
	}

	d := Describe(o)
	if o.Success() {
		c.view.ShowResult(d)
		form.Reset()
		return
	}
	c.view.Alert(d.Alert)
}

// detach stops default rendering. It waits for a rendering in progress.
func (c *Controller) detach() {
	c.renderMu.Lock()
	c.detached = true
	c.renderMu.Unlock()
}

func (c *Controller) transition(s State) {
	c.logger.Debug("submission state", "state", s)

	c.observeMu.RLock()
	observers := c.observers
	c.observeMu.RUnlock()

	for _, o := range observers {
		o(s)
	}
}

func (c *Controller) logOutcome(ctx context.Context, o Outcome, elapsed time.Duration, files int) {
	attrs := []any{
		"kind", o.Kind,
		"files", files,
		"duration", elapsed,
	}

	switch o.Kind {
	case KindSuccess:
		c.logger.InfoContext(ctx, "submission accepted",
			append(attrs, "tx", o.Receipt.Tx, "documents", len(o.Receipt.Documents))...)
	case KindRejected:
		c.logger.WarnContext(ctx, "submission rejected",
			append(attrs, "status", o.Status, "reason", o.Message)...)
	default:
		c.logger.WarnContext(ctx, "submission failed",
			append(attrs, "reason", o.Reason())...)
	}
}
