package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/JaimeStill/docriver/internal/token"
	"github.com/JaimeStill/docriver/pkg/docriver"
	"github.com/JaimeStill/docriver/pkg/formatting"
)

func get(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(e.stderr, "usage: drc get <document|events> [flags]")
		return errUsage
	}

	client := docriver.NewClient(e.cfg.Submission.DocServer, e.cfg.Submission.Realm, e.infra.HTTPClient)

	switch args[0] {
	case "document":
		return getDocument(ctx, e, client, args[1:])
	case "events":
		return getEvents(ctx, e, client, args[1:])
	default:
		fmt.Fprintf(e.stderr, "unknown get target %q\n", args[0])
		return errUsage
	}
}

func getDocument(ctx context.Context, e *env, client *docriver.Client, args []string) error {
	fs := newFlagSet(e, "get document")
	name := fs.String("name", "", "document name")
	output := fs.String("output", os.TempDir(), "directory the document is written to")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *name == "" {
		fmt.Fprintln(e.stderr, "-name is required")
		return errUsage
	}

	auth, err := authorize(ctx, e, func(base token.Permissions) token.Permissions {
		return token.ForDocument(base, *name)
	})
	if err != nil {
		return err
	}

	doc, err := client.Document(ctx, *name, auth)
	if err != nil {
		return err
	}
	defer doc.Body.Close()

	path := filepath.Join(*output, *name+doc.Extension())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, doc.Body)
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	fmt.Fprintf(e.stdout, "%s (%s)\n", path, formatting.FormatBytes(n, 1))
	return nil
}

func getEvents(ctx context.Context, e *env, client *docriver.Client, args []string) error {
	fs := newFlagSet(e, "get events")
	from := fs.Int64("from", 0, "lower bound in epoch seconds")
	to := fs.Int64("to", 0, "upper bound in epoch seconds")
	if err := parse(fs, args); err != nil {
		return err
	}

	var q docriver.EventQuery
	if *from > 0 {
		q.From = time.Unix(*from, 0)
	}
	if *to > 0 {
		q.To = time.Unix(*to, 0)
	}

	auth, err := authorize(ctx, e, token.ForEvents)
	if err != nil {
		return err
	}

	events, err := client.Events(ctx, q, auth)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// authorize prefers a configured authorization over a token source.
func authorize(ctx context.Context, e *env, scope func(token.Permissions) token.Permissions) (string, error) {
	if a := e.cfg.Submission.Metadata.Authorization; a != nil && *a != "" {
		return *a, nil
	}
	auth, err := token.Authorize(ctx, &e.cfg.Token, e.infra.HTTPClient, scope)
	if err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}
	return auth, nil
}
