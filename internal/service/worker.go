package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vanshika/fintrace/ringwatch/internal/domain"
)

// ReportStore is the storage contract the persister writes a report through.
type ReportStore interface {
	SaveRun(ctx context.Context, runID string, summary domain.Summary) error
	SaveRing(ctx context.Context, runID string, ring domain.FraudRing) error
	SaveAccount(ctx context.Context, runID string, acc domain.SuspiciousAccount) error
}

// ErrNoStore is returned by Persist when the service has no store configured.
var ErrNoStore = errors.New("no report store configured")

// TaskError accumulates the per-item failures of one persistence pass.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

func failureCount(err error) int {
	var taskErr *TaskError
	if errors.As(err, &taskErr) {
		return len(taskErr.Errors)
	}
	return 1
}

// ReportPersister writes a report's rings and flagged accounts with a
// bounded worker pool.
type ReportPersister struct {
	store   ReportStore
	workers int
}

// NewReportPersister creates a persister with the provided concurrency.
func NewReportPersister(store ReportStore, workers int) *ReportPersister {
	if workers <= 0 {
		workers = 4
	}
	return &ReportPersister{store: store, workers: workers}
}

// Persist stores the run node first, then every ring and account. Item
// failures are collected into a *TaskError; cancellation aborts the pass.
func (p *ReportPersister) Persist(ctx context.Context, report domain.Report) error {
	if err := p.store.SaveRun(ctx, report.RunID, report.Summary); err != nil {
		return err
	}

	nRings := len(report.FraudRings)
	return p.run(ctx, nRings+len(report.SuspiciousAccounts), func(idx int) error {
		if idx < nRings {
			return p.store.SaveRing(ctx, report.RunID, report.FraudRings[idx])
		}
		return p.store.SaveAccount(ctx, report.RunID, report.SuspiciousAccounts[idx-nRings])
	})
}

func (p *ReportPersister) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				errCh <- err
			}
		}
	}

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
