package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/fintrace/ringwatch/internal/config"
	"github.com/vanshika/fintrace/ringwatch/internal/graph"
	"github.com/vanshika/fintrace/ringwatch/internal/logging"
	"github.com/vanshika/fintrace/ringwatch/internal/metrics"
	"github.com/vanshika/fintrace/ringwatch/internal/repository"
	"github.com/vanshika/fintrace/ringwatch/internal/server"
	"github.com/vanshika/fintrace/ringwatch/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, os.Stdout)

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if graphClient != nil {
			if err := graphClient.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}
	}()

	collector, err := metrics.NewCollector("ringwatch")
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	opts := service.Options{
		Thresholds:     cfg.Detection,
		Weights:        cfg.Scoring,
		Recorder:       collector,
		PersistWorkers: cfg.Persist.Workers,
	}
	if cfg.Persist.Enabled {
		if graphClient == nil {
			logger.Error("PERSIST_RESULTS requires GRAPH_URI")
			os.Exit(1)
		}
		opts.Store = repository.New(graphClient)
	}
	analysis := service.NewAnalysisService(logger.With("component", "analysis"), opts)

	deps := server.RouterDependencies{
		Analyze:          server.NewAnalyzeHandler(logger.With("component", "http"), analysis, cfg.HTTP.MaxUploadBytes),
		AllowedOrigins:   server.ParseOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	}
	if graphClient != nil {
		deps.Health = server.GraphProbe{Client: graphClient}
	}
	if cfg.HTTP.MetricsEnabled {
		deps.Metrics = collector.Handler()
	}

	srv := server.New(logger, cfg.HTTP, server.NewRouter(logger, deps))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// buildGraphClient returns nil without error when no graph is configured;
// the server then runs analysis without persistence.
func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		logger.Info("GRAPH_URI not set, graph persistence disabled")
		return nil, nil
	}

	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
