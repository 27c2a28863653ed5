package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/fintrace/ringwatch/internal/config"
	"github.com/vanshika/fintrace/ringwatch/internal/domain"
	"github.com/vanshika/fintrace/ringwatch/internal/graph"
	"github.com/vanshika/fintrace/ringwatch/internal/ingest"
	"github.com/vanshika/fintrace/ringwatch/internal/logging"
	"github.com/vanshika/fintrace/ringwatch/internal/repository"
	"github.com/vanshika/fintrace/ringwatch/internal/service"
)

var errNoSource = errors.New("one of -input or -from-graph is required")

func main() {
	var (
		input       = flag.String("input", "", "CSV ledger to analyse (use - for stdin)")
		fromGraph   = flag.Bool("from-graph", false, "read the ledger from the graph instead of a file")
		storeLedger = flag.Bool("store-ledger", false, "write the input ledger to the graph before analysing")
		persist     = flag.Bool("persist", false, "save the report to the graph")
		pretty      = flag.Bool("pretty", false, "indent the JSON report")
		workers     = flag.Int("workers", 0, "concurrent writers used by -persist (default PERSIST_WORKERS)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging, os.Stderr).With("component", "analyze")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, cfg, options{
		input:       *input,
		fromGraph:   *fromGraph,
		storeLedger: *storeLedger,
		persist:     *persist,
		pretty:      *pretty,
		workers:     *workers,
	}); err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			for _, msg := range verr.Errors {
				logger.Error("ledger rejected", "reason", msg)
			}
		}
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	input       string
	fromGraph   bool
	storeLedger bool
	persist     bool
	pretty      bool
	workers     int
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config, opts options) error {
	if opts.input == "" && !opts.fromGraph {
		return errNoSource
	}

	var repo *repository.Repository
	if opts.fromGraph || opts.persist || opts.storeLedger {
		client, err := buildGraphClient(ctx, logger, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(context.Background()); err != nil {
				logger.Warn("closing graph client failed", "error", err)
			}
		}()
		repo = repository.New(client)
	}

	txs, err := loadLedger(ctx, logger, repo, opts)
	if err != nil {
		return err
	}
	if opts.storeLedger && !opts.fromGraph {
		if err := repo.SaveTransactions(ctx, txs); err != nil {
			return err
		}
		logger.Info("ledger stored", "transactions", len(txs))
	}

	svcOpts := service.Options{Thresholds: cfg.Detection, Weights: cfg.Scoring, PersistWorkers: cfg.Persist.Workers}
	if opts.workers > 0 {
		svcOpts.PersistWorkers = opts.workers
	}
	if repo != nil && opts.persist {
		svcOpts.Store = repo
	}
	svc := service.NewAnalysisService(logger, svcOpts)

	report, err := svc.Analyze(ctx, txs)
	if err != nil {
		return err
	}
	return writeReport(os.Stdout, report, opts.pretty)
}

func loadLedger(ctx context.Context, logger *slog.Logger, repo *repository.Repository, opts options) ([]domain.Transaction, error) {
	if opts.fromGraph {
		txs, err := repo.LoadTransactions(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("ledger loaded from graph", "transactions", len(txs))
		return txs, nil
	}

	var r io.Reader = os.Stdin
	if opts.input != "-" {
		file, err := os.Open(opts.input)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", opts.input, err)
		}
		defer file.Close()
		r = file
	}

	txs, stats, err := ingest.ParseCSV(r)
	if err != nil {
		return nil, err
	}
	logger.Info("ledger parsed", "rows", stats.RowsParsed, "columns", len(stats.Columns))
	return txs, nil
}

func writeReport(w io.Writer, report domain.Report, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for graph access: %w", graph.ErrMissingURI)
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
