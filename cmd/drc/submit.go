package main

import (
	"context"
	"fmt"

	"github.com/JaimeStill/docriver/internal/manifest"
	"github.com/JaimeStill/docriver/internal/outcomes"
	"github.com/JaimeStill/docriver/internal/render"
	"github.com/JaimeStill/docriver/internal/token"
	"github.com/JaimeStill/docriver/internal/tui"
	"github.com/JaimeStill/docriver/pkg/submission"
)

// outcomeError marks a submission that completed without success. The
// outcome has already been rendered.
type outcomeError struct {
	outcome submission.Outcome
}

func (e *outcomeError) Error() string {
	return submission.Describe(e.outcome).Alert
}

func submit(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "submit")
	var o manifest.Options
	fs.StringVar(&o.Filter, "filter", ".*", "regular expression selecting files of a directory source")
	fs.StringVar(&o.Prefix, "prefix", "", "prefix of generated document names")
	fs.StringVar(&o.DocumentType, "document-type", "", "document type (defaults to the file extension)")
	fs.StringVar(&o.ResourceType, "resource-type", "", "type of the referenced resource")
	fs.StringVar(&o.ResourceID, "resource-id", "", "id of the referenced resource")
	fs.StringVar(&o.ResourceDescription, "resource-description", "", "description of the referenced resource")
	fs.StringVar(&o.Replaces, "replaces", "", "document replaced by a single-file submission")
	fs.StringVar(&o.Manifest, "manifest", "", "existing JSON or YAML manifest to send")
	interactive := fs.Bool("tui", false, "follow the submission in an interactive view")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: drc submit [flags] <file or directory>")
		return errUsage
	}
	o.Source = fs.Arg(0)

	m, attachments, err := manifest.Prepare(ctx, &o)
	if err != nil {
		return err
	}

	hook, err := token.NewHook(&e.cfg.Token, e.infra.HTTPClient, e.infra.Logger)
	if err != nil {
		return fmt.Errorf("token hook: %w", err)
	}
	registry, direct := token.Install(hook, e.cfg.Submission.OnDocumentSubmit)

	host := submission.NewDispatcher(nil)
	detach := outcomes.New(e.cfg, e.infra).Attach(host)
	defer detach()

	view := render.New(e.stdout)
	opts := []submission.Option{
		submission.WithHTTPClient(e.infra.HTTPClient),
		submission.WithLogger(e.infra.Logger),
		submission.WithRegistry(registry),
		submission.WithParent(host),
	}
	if direct != nil {
		opts = append(opts, submission.WithHook(direct))
	}
	// The interactive view draws the outcome itself.
	if !*interactive {
		opts = append(opts, submission.WithView(view))
	}

	ctrl, err := submission.New(&e.cfg.Submission, opts...)
	if err != nil {
		return err
	}

	form := submission.NewForm(metadata(e.cfg.Submission.Metadata, m, &o))
	form.Attach(attachments...)

	var outcome submission.Outcome
	if *interactive {
		outcome, err = tui.Run(ctx, ctrl, form, view.Styles())
	} else {
		view.Label(submission.RenderLabel(e.cfg.Submission.Label, form.Metadata().Values()))
		outcome, err = ctrl.Submit(ctx, form)
	}
	if err != nil {
		return err
	}
	if !outcome.Success() {
		return &outcomeError{outcome: outcome}
	}
	return nil
}

// metadata layers the manifest tx and the reference flags over the
// configured metadata. The form tx always matches the manifest.
func metadata(configured submission.Metadata, m *manifest.Manifest, o *manifest.Options) submission.Metadata {
	md := configured
	md.Merge(&submission.Metadata{
		Tx:                     optional(m.Tx),
		DocumentType:           optional(o.DocumentType),
		RefResourceType:        optional(o.ResourceType),
		RefResourceID:          optional(o.ResourceID),
		RefResourceDescription: optional(o.ResourceDescription),
	})
	return md
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return submission.Value(v)
}
