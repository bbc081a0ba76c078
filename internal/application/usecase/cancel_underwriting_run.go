package usecase

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoActiveRun is returned when cancellation targets an application with no
// run in flight. Terminal runs are immutable and cannot be cancelled.
var ErrNoActiveRun = errors.New("no active underwriting run for application")

// CancelUnderwritingRunUseCase aborts the in-flight run for an application.
// The cancellation reaches the evaluation through the run's context; the run
// itself transitions to failed("cancelled") inside the orchestrating use case.
type CancelUnderwritingRunUseCase struct {
	active *ActiveRuns
	logger *slog.Logger
}

// NewCancelUnderwritingRunUseCase wires dependencies.
func NewCancelUnderwritingRunUseCase(active *ActiveRuns, logger *slog.Logger) *CancelUnderwritingRunUseCase {
	return &CancelUnderwritingRunUseCase{active: active, logger: logger}
}

// Execute cancels the active run and returns its ID.
func (uc *CancelUnderwritingRunUseCase) Execute(_ context.Context, applicationID string) (string, error) {
	runID, found := uc.active.Cancel(applicationID)
	if !found {
		return "", ErrNoActiveRun
	}
	uc.logger.Info("underwriting run cancellation requested",
		"application_id", applicationID, "run_id", runID)
	return runID, nil
}
