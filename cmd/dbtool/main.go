package main

import (
	"delivery-eta-service/internal/adapters/repositories"
	"delivery-eta-service/internal/config"
	"delivery-eta-service/internal/platform/obs"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
)

// dbtool applies the embedded schema migrations.
//
//	dbtool -command up
//	dbtool -command force 1
func main() {
	config.LoadDotEnv()

	var databaseURL, command string
	flag.StringVar(&databaseURL, "database", "", "database URL (defaults to DATABASE_URL)")
	flag.StringVar(&command, "command", "up", "migration command: up, down, version, force")
	flag.Parse()

	if _, err := obs.SetupLogger(os.Stderr, config.Get("LOG_LEVEL", "INFO")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if databaseURL == "" {
		databaseURL = config.Get("DATABASE_URL", "")
	}
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required (flag -database or environment)")
		os.Exit(2)
	}

	if err := run(databaseURL, command, flag.Args()); err != nil {
		slog.Error("migration failed", "command", command, "err", err)
		os.Exit(1)
	}
}

func run(databaseURL, command string, args []string) (err error) {
	m, err := repositories.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	switch command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("schema up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("up: %w", err)
		}
		slog.Info("migrations applied")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("down: %w", err)
		}
		slog.Info("migrations rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			slog.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		slog.Info("schema version", "version", version, "dirty", dirty)

	case "force":
		if len(args) < 1 {
			return errors.New("force requires a version number")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("force: invalid version %q: %w", args[0], err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force: %w", err)
		}
		slog.Info("forced schema version", "version", version)

	default:
		return fmt.Errorf("unknown command %q (use up, down, version, force)", command)
	}
	return nil
}
