package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vanshika/fintrace/ringwatch/internal/detector"
	"github.com/vanshika/fintrace/ringwatch/internal/domain"
	"github.com/vanshika/fintrace/ringwatch/internal/metrics"
	"github.com/vanshika/fintrace/ringwatch/internal/rings"
	"github.com/vanshika/fintrace/ringwatch/internal/scoring"
	"github.com/vanshika/fintrace/ringwatch/internal/txgraph"
)

// Recorder receives per-run statistics.
type Recorder interface {
	RecordRun(duration time.Duration, patternCounts map[string]int, rings, flagged int)
	RecordFailure()
	RecordPersistFailures(n int)
}

// Options configures an AnalysisService. Zero values fall back to the
// production thresholds and weights, no metrics and no persistence.
type Options struct {
	Thresholds     detector.Thresholds
	Weights        scoring.Weights
	Recorder       Recorder
	Store          ReportStore
	PersistWorkers int
}

// AnalysisService runs the detection pipeline over a validated ledger.
type AnalysisService struct {
	logger     *slog.Logger
	thresholds detector.Thresholds
	weights    scoring.Weights
	recorder   Recorder
	persister  *ReportPersister
	nowFn      func() time.Time
	newID      func() string
}

// NewAnalysisService wires the pipeline.
func NewAnalysisService(logger *slog.Logger, opts Options) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Thresholds == (detector.Thresholds{}) {
		opts.Thresholds = detector.DefaultThresholds()
	}
	if opts.Weights == (scoring.Weights{}) {
		opts.Weights = scoring.DefaultWeights()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoOp{}
	}

	s := &AnalysisService{
		logger:     logger,
		thresholds: opts.Thresholds,
		weights:    opts.Weights,
		recorder:   opts.Recorder,
		nowFn:      time.Now,
		newID:      uuid.NewString,
	}
	if opts.Store != nil {
		s.persister = NewReportPersister(opts.Store, opts.PersistWorkers)
	}
	return s
}

// WithClock overrides the time provider (used primarily in tests).
func (s *AnalysisService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Analyze builds the transaction graph, runs the detectors concurrently,
// merges their patterns into rings and assembles the scored report.
//
// Cancellation is observed between stages. When a store is configured the
// report is persisted after assembly; persistence failures are logged and
// counted but do not fail the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, txs []domain.Transaction) (domain.Report, error) {
	report, err := s.analyze(ctx, txs)
	if err != nil {
		s.recorder.RecordFailure()
		s.logger.Warn("analysis failed", "transactions", len(txs), "error", err)
		return domain.Report{}, err
	}

	if s.persister != nil {
		if err := s.persister.Persist(ctx, report); err != nil {
			s.recorder.RecordPersistFailures(failureCount(err))
			s.logger.Error("persist report", "run_id", report.RunID, "error", err)
		}
	}
	return report, nil
}

// Persist writes report through the configured store.
func (s *AnalysisService) Persist(ctx context.Context, report domain.Report) error {
	if s.persister == nil {
		return ErrNoStore
	}
	if err := s.persister.Persist(ctx, report); err != nil {
		s.recorder.RecordPersistFailures(failureCount(err))
		return err
	}
	return nil
}

func (s *AnalysisService) analyze(ctx context.Context, txs []domain.Transaction) (domain.Report, error) {
	start := s.nowFn()
	runID := s.newID()
	logger := s.logger.With("run_id", runID)

	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}
	g := txgraph.Build(txs)
	logger.Debug("graph built", "accounts", g.NodeCount(), "edges", g.EdgeCount())

	detections, err := s.detect(ctx, g, txs)
	if err != nil {
		return domain.Report{}, err
	}

	var all [][]string
	counts := make(map[string]int, len(detections))
	for _, d := range detections {
		all = append(all, d.Patterns...)
		counts[string(d.Type)] = len(d.Patterns)
	}
	logger.Debug("patterns detected", "cycle", counts[string(domain.PatternCycle)],
		"shell_chain", counts[string(domain.PatternShellChain)], "smurfing", counts[string(domain.PatternSmurfing)])

	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}
	merged := rings.Merge(all)
	accounts := scoring.Tag(detections, s.weights)

	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}
	elapsed := s.nowFn().Sub(start)
	report := scoring.Assemble(scoring.ReportInput{
		Accounts:       accounts,
		Rings:          merged,
		Transactions:   txs,
		TotalAccounts:  g.NodeCount(),
		TotalEdges:     g.EdgeCount(),
		ProcessingTime: elapsed,
	})
	report.RunID = runID

	critical := 0
	for _, acc := range report.SuspiciousAccounts {
		if scoring.ClassifyRisk(acc.SuspicionScore) == scoring.RiskCritical {
			critical++
		}
	}

	s.recorder.RecordRun(elapsed, counts, len(report.FraudRings), len(report.SuspiciousAccounts))
	logger.Info("analysis complete",
		"transactions", len(txs),
		"accounts_flagged", len(report.SuspiciousAccounts),
		"critical_accounts", critical,
		"rings", len(report.FraudRings),
		"duration", elapsed,
	)
	return report, nil
}

// detect runs each detector in its own goroutine. Every goroutine owns one
// slot of the result slice, so no locking is needed.
func (s *AnalysisService) detect(ctx context.Context, g *txgraph.Graph, txs []domain.Transaction) ([]domain.Detection, error) {
	th := s.thresholds
	detections := []domain.Detection{
		{Type: domain.PatternCycle},
		{Type: domain.PatternShellChain},
		{Type: domain.PatternSmurfing},
	}
	runners := []func() [][]string{
		func() [][]string { return detector.Cycles(g, th.CycleMinLength, th.CycleMaxLength) },
		func() [][]string {
			return detector.ShellChains(g, th.ShellMinHops, th.ShellMaxHops, th.ShellMaxInteriorDegree)
		},
		func() [][]string { return detector.Smurfing(txs, th.SmurfingMinTransactions, th.SmurfingWindow) },
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i, run := range runners {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			detections[i].Patterns = run()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("run detectors: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return detections, nil
}
