package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"
)

// WorkflowState is the lifecycle state of a Workflow.
type WorkflowState int

const (
	WorkflowIdle WorkflowState = iota
	WorkflowActive
	WorkflowCommitted
	WorkflowRolledBack
)

func (s WorkflowState) String() string {
	switch s {
	case WorkflowIdle:
		return "idle"
	case WorkflowActive:
		return "active"
	case WorkflowCommitted:
		return "committed"
	case WorkflowRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// ErrWorkflowState is returned when Begin, Commit or Rollback is called in the wrong state.
var ErrWorkflowState = fmt.Errorf("%w: invalid workflow state", domain.ErrTransaction)

// Workflow brackets a multi-resource mutation (store rows, files, cache entries) in one
// store transaction. It moves Idle -> Active -> Committed or RolledBack and is single use.
type Workflow struct {
	transactor domain.Transactor
	logger     *slog.Logger
	operation  string

	state WorkflowState
	tx    domain.Tx
}

// NewWorkflow returns an idle workflow. operation labels logs and metrics.
func NewWorkflow(transactor domain.Transactor, logger *slog.Logger, operation string) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{transactor: transactor, logger: logger, operation: operation}
}

// State returns the current state.
func (w *Workflow) State() WorkflowState {
	return w.state
}

// Tx returns the store transaction of an active workflow, or nil.
func (w *Workflow) Tx() domain.Tx {
	if w.state != WorkflowActive {
		return nil
	}
	return w.tx
}

// Begin starts the store transaction.
func (w *Workflow) Begin(ctx context.Context) error {
	if w.state != WorkflowIdle {
		return fmt.Errorf("%w: begin called while %s", ErrWorkflowState, w.state)
	}
	tx, err := w.transactor.Begin(ctx)
	if err != nil {
		return err
	}
	w.tx = tx
	w.state = WorkflowActive
	return nil
}

// Commit flushes pending writes so constraint violations surface, then commits. Any
// failure rolls the workflow back and the original error is returned.
func (w *Workflow) Commit(ctx context.Context) error {
	if w.state != WorkflowActive {
		return fmt.Errorf("%w: commit called while %s", ErrWorkflowState, w.state)
	}
	if err := w.tx.Flush(ctx); err != nil {
		err = fmt.Errorf("%w: flush: %w", domain.ErrTransaction, err)
		if rbErr := w.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if err := w.tx.Commit(); err != nil {
		// A failed COMMIT already ended the transaction in the store.
		w.state = WorkflowRolledBack
		w.recordRollback("commit failed", err)
		return fmt.Errorf("%w: commit: %w", domain.ErrTransaction, err)
	}
	w.state = WorkflowCommitted
	return nil
}

// Rollback discards the transaction.
func (w *Workflow) Rollback() error {
	if w.state != WorkflowActive {
		return fmt.Errorf("%w: rollback called while %s", ErrWorkflowState, w.state)
	}
	w.state = WorkflowRolledBack
	err := w.tx.Rollback()
	w.recordRollback("rolled back", err)
	if err != nil {
		return fmt.Errorf("%w: rollback: %w", domain.ErrTransaction, err)
	}
	return nil
}

func (w *Workflow) recordRollback(msg string, err error) {
	metrics.WorkflowRollbacks.WithLabelValues(w.operation).Inc()
	if err != nil {
		w.logger.Warn("workflow "+msg, "operation", w.operation, "error", err)
		return
	}
	w.logger.Debug("workflow "+msg, "operation", w.operation)
}

// RunInTransaction runs fn inside a new workflow. fn's error or panic rolls the workflow
// back; a nil return commits it. A rollback failure is joined to fn's error.
func RunInTransaction(ctx context.Context, transactor domain.Transactor, logger *slog.Logger, operation string, fn func(ctx context.Context, tx domain.Tx) error) error {
	w := NewWorkflow(transactor, logger, operation)
	if err := w.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = w.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, w.Tx()); err != nil {
		if rbErr := w.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return w.Commit(ctx)
}
