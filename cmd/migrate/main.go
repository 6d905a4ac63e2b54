// Command migrate applies the journal schema to PostgreSQL.
//
// The connection string comes from -dsn, then DOCRIVER_DB_DSN, then the
// [journal] section of the docriver configuration.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/docriver/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "DOCRIVER_DB_DSN"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(os.Args[1:]); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var (
		dsn     = fs.String("dsn", "", "database connection string")
		cfgPath = fs.String("config", "", "docriver config file used when no dsn is given")
		up      = fs.Bool("up", false, "run all up migrations")
		down    = fs.Bool("down", false, "run all down migrations")
		steps   = fs.Int("steps", 0, "number of migrations (positive=up, negative=down)")
		version = fs.Bool("version", false, "print current migration version")
		force   = fs.Int("force", -1, "force set version")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	forceSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	conn, err := resolveDSN(*dsn, *cfgPath)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, conn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	ignoreNoChange := func(err error) error {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			return fmt.Errorf("force version %d: %w", *force, err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		fmt.Println("journal schema up to date")
	case *down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("revert migrations: %w", err)
		}
		fmt.Println("journal schema removed")
	case *steps != 0:
		if err := ignoreNoChange(m.Steps(*steps)); err != nil {
			return fmt.Errorf("step %d: %w", *steps, err)
		}
		fmt.Printf("applied %d migration steps\n", *steps)
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn <url>|-config <file>] -up|-down|-steps N|-version|-force N")
		fs.PrintDefaults()
	}
	return nil
}

func resolveDSN(dsn, cfgPath string) (string, error) {
	if dsn != "" {
		return dsn, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if !cfg.Journal.Enabled() {
		return "", errors.New("no dsn given and journal database not configured")
	}
	return cfg.Journal.URL(), nil
}
