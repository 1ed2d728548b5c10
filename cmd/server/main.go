package main

import (
	"context"
	"delivery-eta-service/internal/api"
	"delivery-eta-service/internal/artifacts"
	"delivery-eta-service/internal/config"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/services"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, HTTP providers) behind ports and starts
// the API and metrics servers.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	dotenv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := obs.SetupLogger(os.Stdout, cfg.LogLevel); err != nil {
		return err
	}
	if !dotenv {
		slog.Info("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trained, err := artifacts.Load(cfg.Artifacts.Dir)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	pipeline, err := services.NewPipeline(trained)
	if err != nil {
		return err
	}

	in, err := connectInfra(ctx, cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	geocoder, err := buildGeocoder(cfg, in)
	if err != nil {
		return err
	}
	weather, traffic := buildContextProviders(cfg, in)
	repo, dispatcher := buildSinks(cfg, in)

	deliveries := services.NewDeliveryService(geocoder, weather, traffic, pipeline, dispatcher)
	dashboard := services.NewDashboardService(repo)

	router := api.NewRouter(api.Deps{
		Predictor:      deliveries,
		Dashboard:      dashboard,
		ModelVersion:   pipeline.ModelVersion(),
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RequestTimeout: 30 * time.Second,
	})

	// Timeouts leave room for two geocoding calls plus provider retries.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	metricsSrv := newMetricsServer(cfg.Server.MetricsAddr)

	errc := make(chan error, 2)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "model_version", pipeline.ModelVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		slog.Info("metrics server listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errc:
		slog.Error("server failed, shutting down", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown", "err", err)
	}
	// In-flight predictions are queued by now; flush them before closing stores.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		slog.Error("sink flush", "err", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics shutdown", "err", err)
	}

	return err
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
