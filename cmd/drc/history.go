package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JaimeStill/docriver/internal/journal"
	"github.com/JaimeStill/docriver/internal/outcomes"
	"github.com/JaimeStill/docriver/internal/render"
	"github.com/JaimeStill/docriver/pkg/pagination"
)

var (
	errNoJournal  = errors.New("journal database not configured")
	errNoReceipts = errors.New("receipt storage not configured")
)

func history(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "history")
	var f journal.Filters
	fs.StringVar(&f.Realm, "realm", "", "filter by realm")
	fs.StringVar(&f.Kind, "kind", "", "filter by outcome kind")
	fs.StringVar(&f.Tx, "tx", "", "filter by transaction id")
	since := fs.Duration("since", 0, "only outcomes recorded within this duration")
	search := fs.String("search", "", "search tx and message")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", 0, "page size")
	asJSON := fs.Bool("json", false, "print the page as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}

	sinks := outcomes.New(e.cfg, e.infra)
	if sinks.Journal == nil {
		return errNoJournal
	}

	if *since > 0 {
		f.From = time.Now().Add(-*since)
	}
	req := pagination.PageRequest{Page: *page, PageSize: *size, Search: *search}
	req.Normalize(e.cfg.Web.Pagination)

	result, err := sinks.Journal.List(ctx, req, f)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	styles := render.New(e.stdout).Styles()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RECORDED", "REALM", "KIND", "STATUS", "TX", "DOCUMENTS", "MESSAGE")
	for _, entry := range result.Data {
		t.Row(
			entry.CreatedAt.Local().Format(time.DateTime),
			entry.Realm,
			entry.Kind,
			deref(entry.Status),
			derefString(entry.Tx),
			strings.Join(entry.Documents, ", "),
			entry.Message,
		)
	}

	fmt.Fprintln(e.stdout, t.String())
	fmt.Fprintln(e.stdout, styles.Line.Render(
		fmt.Sprintf("page %d of %d, %d entries", result.Page, result.TotalPages, result.Total),
	))
	return nil
}

func purge(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "purge")
	olderThan := fs.Duration("older-than", 0, "delete outcomes recorded before now minus this duration")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *olderThan <= 0 {
		fmt.Fprintln(e.stderr, "-older-than must be positive")
		return errUsage
	}

	sinks := outcomes.New(e.cfg, e.infra)
	if sinks.Journal == nil {
		return errNoJournal
	}

	n, err := sinks.Journal.Purge(ctx, time.Now().Add(-*olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "removed %d entries\n", n)
	return nil
}

func receipt(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "receipt")
	realm := fs.String("realm", "", "realm of the submission (defaults to the configured realm)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: drc receipt [-realm realm] <tx>")
		return errUsage
	}
	if *realm == "" {
		*realm = e.cfg.Submission.Realm
	}

	sinks := outcomes.New(e.cfg, e.infra)
	if sinks.Receipts == nil {
		return errNoReceipts
	}

	raw, err := sinks.Receipts.Get(ctx, *realm, fs.Arg(0))
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		_, err = e.stdout.Write(append(raw, '\n'))
		return err
	}
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func derefString(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}
