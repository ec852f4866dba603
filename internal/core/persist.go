package core

// persist.go runs a Plan as one full-refresh transaction.
//
// The target is reset, then every unit is applied in order. Whenever the
// share of units already applied reaches the next checkpoint mark, and for
// the last unit, progress is written to the job row. Checkpoints go through
// the store outside the transaction so pollers and cancel requests never
// wait on it. A checkpoint that finds no pending row aborts the run and the
// transaction is rolled back. After commit a final checkpoint completes the
// job at 100%.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// DefaultCheckpointPercent is the progress step between checkpoints.
const DefaultCheckpointPercent = 5

// TransactionError wraps a failure inside the persistence transaction.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// BatchPersister applies plans against a store.
type BatchPersister struct {
	store Store
	jobs  *JobTracker
	step  float64
}

// NewBatchPersister returns a persister checkpointing every stepPercent.
func NewBatchPersister(store Store, jobs *JobTracker, stepPercent int) *BatchPersister {
	if stepPercent <= 0 {
		stepPercent = DefaultCheckpointPercent
	}
	return &BatchPersister{store: store, jobs: jobs, step: float64(stepPercent)}
}

// Run applies plan and reports to job. It returns ErrJobCancelled when the
// job row disappeared, a *TransactionError for any failure that rolled the
// transaction back, and the final totals.
func (p *BatchPersister) Run(ctx context.Context, job JobRef, plan *Plan, logger *slog.Logger) (Totals, error) {
	totals := Totals{Excluded: plan.Excluded}

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return totals, &TransactionError{Op: "begin", Err: err}
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			logger.Warn("rollback failed", "error", err)
		}
	}()

	q := tx.Queries()
	if err := plan.Reset(ctx, q); err != nil {
		return totals, &TransactionError{Op: "reset " + plan.Target, Err: err}
	}

	marks := checkpointMarks{step: p.step}
	for i := 0; i < plan.Units; i++ {
		res, err := plan.Apply(ctx, q, i)
		if err != nil {
			return totals, &TransactionError{Op: fmt.Sprintf("apply %s unit %d", plan.Target, i), Err: err}
		}
		totals.add(res)

		ratio := float64(i) * 100 / float64(plan.Units)
		if !marks.reached(ratio) && i != plan.Units-1 {
			continue
		}

		ok, err := p.jobs.Checkpoint(ctx, job, ratio, totals)
		if err != nil {
			return totals, &TransactionError{Op: "checkpoint", Err: err}
		}
		if !ok {
			logger.Info("job cancelled, rolling back", "unit", i, "units", plan.Units)
			return totals, ErrJobCancelled
		}
		logger.Debug("checkpoint", "progress", RoundProgress(ratio).String(), "rows", totals.Rows)
	}

	if err := tx.Commit(ctx); err != nil {
		return totals, &TransactionError{Op: "commit", Err: err}
	}

	ok, err := p.jobs.Checkpoint(ctx, job, 100, totals)
	if err != nil {
		return totals, fmt.Errorf("final checkpoint: %w", err)
	}
	if !ok {
		logger.Warn("job removed after commit, data kept", "rows", totals.Rows)
	}
	return totals, nil
}

// checkpointMarks tracks the next progress mark that triggers a checkpoint.
type checkpointMarks struct {
	step float64
	next float64
}

// reached reports whether ratio is at or past the next mark and advances it.
func (m *checkpointMarks) reached(ratio float64) bool {
	if ratio < m.next {
		return false
	}
	m.next = (math.Floor(ratio/m.step) + 1) * m.step
	return true
}
