package main

import (
	"delivery-eta-service/internal/artifacts"
	"delivery-eta-service/internal/model"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/training"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

// fitartifacts fits the lookup tables and preprocessor on the historical dataset and
// writes them, with a manifest, next to an already trained model file.
func main() {
	app := &cli.App{
		Name:  "fitartifacts",
		Usage: "fit lookup tables and preprocessor from the delivery dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Usage: "training CSV", Required: true},
			&cli.StringFlag{Name: "out", Usage: "artifacts directory", Value: "artifacts"},
			&cli.StringFlag{Name: "model", Usage: "model file, relative to -out", Value: "model.json"},
			&cli.StringFlag{
				Name:  "model-format",
				Usage: "xgboost-json, leaves-lightgbm or leaves-xgboost",
				Value: model.FormatXGBoostJSON,
			},
			&cli.StringFlag{Name: "model-version", Usage: "version reported by /health", Value: "dev"},
			&cli.BoolFlag{Name: "check", Usage: "load the written bundle to verify it"},
			&cli.StringFlag{Name: "log-level", Value: "INFO", EnvVars: []string{"LOG_LEVEL"}},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fitartifacts failed", "err", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if _, err := obs.SetupLogger(os.Stderr, c.String("log-level")); err != nil {
		return err
	}

	f, err := os.Open(c.String("data"))
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	examples, stats, err := training.ReadExamples(f)
	if err != nil {
		return err
	}
	slog.Info("dataset read", "rows", stats.Rows, "skipped", stats.Skipped, "reasons", stats.Reasons)

	fitted, err := training.Fit(examples)
	if err != nil {
		return err
	}
	slog.Info("fitted",
		"examples", len(examples),
		"dropped", fitted.Dropped,
		"cities", fitted.Lookups.Cities(),
		"width", fitted.Preprocessor.Width(),
	)

	out := c.String("out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	m := artifacts.DefaultManifest(c.String("model-version"), c.String("model"), c.String("model-format"))
	if err := artifacts.WriteLookups(m, out, fitted.Lookups); err != nil {
		return err
	}
	if err := artifacts.WritePreprocessor(m, out, fitted.Preprocessor); err != nil {
		return err
	}
	if err := artifacts.WriteManifest(out, m); err != nil {
		return err
	}
	slog.Info("artifacts written", "dir", out, "manifest", filepath.Join(out, artifacts.ManifestFile))

	if c.Bool("check") {
		if _, err := artifacts.Load(out); err != nil {
			return fmt.Errorf("check bundle: %w", err)
		}
		slog.Info("bundle verified")
	}
	return nil
}
