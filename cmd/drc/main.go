// Command drc submits documents to a docriver realm and reads back
// documents, transaction events, the submission journal and archived
// receipts.
//
// Usage:
//
//	drc [global flags] <command> [command flags] [args]
//
// Commands are submit, get, history, purge and receipt.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JaimeStill/docriver/internal/config"
	"github.com/JaimeStill/docriver/internal/infrastructure"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage")

// env is the state shared by every command.
type env struct {
	cfg    *config.Config
	infra  *infrastructure.Infrastructure
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commands = []command{
	{"submit", "submit files or a directory as one transaction", submit},
	{"get", "download a document (get document) or list events (get events)", get},
	{"history", "list recorded submission outcomes", history},
	{"purge", "delete recorded outcomes older than a duration", purge},
	{"receipt", "print the archived receipt of a transaction", receipt},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("drc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath  = fs.String("config", "", "config file (defaults to DOCRIVER_CONFIG or config.toml)")
		server   = fs.String("server", "", "docriver server URL")
		realm    = fs.String("realm", "", "docriver realm")
		timeout  = fs.Duration("timeout", 0, "submission timeout")
		logLevel = fs.String("log-level", "", "log level (debug, info, warn, error)")
	)
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == fs.Arg(0) {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "unknown command %q\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*cfgPath, func(c *config.Config) {
		if *server != "" {
			c.Submission.DocServer = *server
		}
		if *realm != "" {
			c.Submission.Realm = *realm
		}
		if *timeout > 0 {
			c.Submission.Timeout = timeout.String()
		}
		if *logLevel != "" {
			c.Log.Level = *logLevel
		}
	})
	if err != nil {
		fmt.Fprintln(stderr, "config load failed:", err)
		return exitFailure
	}

	infra, err := infrastructure.New(ctx, cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	defer infra.Lifecycle.Shutdown(shutdownTimeout(cfg))

	if err := infra.Start(); err != nil {
		infra.Logger.Error("infrastructure start failed", "error", err)
		return exitFailure
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		infra.Logger.Error("infrastructure start failed", "error", err)
		return exitFailure
	}

	e := &env{cfg: cfg, infra: infra, stdout: stdout, stderr: stderr}
	err = cmd.run(ctx, e, fs.Args()[1:])

	var failed *outcomeError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return exitUsage
	case errors.As(err, &failed):
		return exitFailure
	default:
		infra.Logger.Error(cmd.name+" failed", "error", err)
		return exitFailure
	}
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintln(w, "usage: drc [global flags] <command> [command flags] [args]")
	fmt.Fprintln(w, "\ncommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w, "\nglobal flags:")
	fs.PrintDefaults()
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if d := cfg.ShutdownTimeoutDuration(); d > 0 {
		return d
	}
	return 5 * time.Second
}

// newFlagSet creates a command flag set that reports errors to e.
func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet("drc "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}
