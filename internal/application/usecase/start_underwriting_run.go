package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
	"github.com/lendermatch/underwriting-service/internal/domain/service"
	"github.com/lendermatch/underwriting-service/internal/domain/valueobject"
)

// StartUnderwritingRunUseCase orchestrates one underwriting run: it claims the
// application's run slot, loads the lender catalog, fans the evaluation out
// through the match engine, and records the outcome on both the run and the
// application.
type StartUnderwritingRunUseCase struct {
	appRepo    port.ApplicationRepository
	policyRepo port.PolicyRepository
	runRepo    port.RunRepository
	publisher  port.EventPublisher
	engine     *service.MatchEngine
	active     *ActiveRuns
	logger     *slog.Logger

	runsStarted   metric.Int64Counter
	runsCompleted metric.Int64Counter
	runsFailed    metric.Int64Counter
	runDuration   metric.Float64Histogram
}

// NewStartUnderwritingRunUseCase wires dependencies and registers metrics.
func NewStartUnderwritingRunUseCase(
	appRepo port.ApplicationRepository,
	policyRepo port.PolicyRepository,
	runRepo port.RunRepository,
	publisher port.EventPublisher,
	engine *service.MatchEngine,
	active *ActiveRuns,
	logger *slog.Logger,
) *StartUnderwritingRunUseCase {
	meter := otel.Meter("underwriting")
	runsStarted, _ := meter.Int64Counter("underwriting_runs_started_total")
	runsCompleted, _ := meter.Int64Counter("underwriting_runs_completed_total")
	runsFailed, _ := meter.Int64Counter("underwriting_runs_failed_total")
	runDuration, _ := meter.Float64Histogram("underwriting_run_duration_seconds")

	return &StartUnderwritingRunUseCase{
		appRepo:       appRepo,
		policyRepo:    policyRepo,
		runRepo:       runRepo,
		publisher:     publisher,
		engine:        engine,
		active:        active,
		logger:        logger,
		runsStarted:   runsStarted,
		runsCompleted: runsCompleted,
		runsFailed:    runsFailed,
		runDuration:   runDuration,
	}
}

// Execute runs underwriting for one application and blocks until the run
// reaches a terminal state. Submission is idempotent per application: while a
// run is in flight, further submissions acknowledge the existing run instead
// of starting another.
func (uc *StartUnderwritingRunUseCase) Execute(
	ctx context.Context,
	applicationID string,
) (dto.StartRunResponse, error) {
	app, err := uc.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return dto.StartRunResponse{}, fmt.Errorf("load application: %w", err)
	}

	now := time.Now().UTC()
	run, err := model.NewUnderwritingRun(app.ID, now)
	if err != nil {
		return dto.StartRunResponse{}, fmt.Errorf("create run: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if existingID, claimed := uc.active.Begin(app.ID, run.ID(), cancel); !claimed {
		uc.logger.Info("underwriting run already in flight",
			"application_id", app.ID, "run_id", existingID)
		return dto.StartRunResponse{
			RunID:          existingID,
			ApplicationID:  app.ID,
			Status:         "running",
			AlreadyRunning: true,
		}, nil
	}
	defer uc.active.End(app.ID, run.ID())

	if err := uc.runRepo.Save(ctx, run); err != nil {
		return dto.StartRunResponse{}, fmt.Errorf("save run: %w", err)
	}
	uc.runsStarted.Add(ctx, 1)

	run, err = uc.evaluate(runCtx, run, app)
	if err != nil {
		return dto.StartRunResponse{}, err
	}

	return dto.StartRunResponse{
		RunID:         run.ID(),
		ApplicationID: app.ID,
		Status:        run.Status().String(),
	}, nil
}

// evaluate drives the run through its state machine and persists every
// transition. Systemic faults and cancellation end in a failed run; a clean
// catalog sweep ends in a completed one, even with zero eligible lenders.
func (uc *StartUnderwritingRunUseCase) evaluate(
	ctx context.Context,
	run model.UnderwritingRun,
	app model.LoanApplication,
) (model.UnderwritingRun, error) {
	started := time.Now()

	catalog, err := uc.policyRepo.ListAll(ctx)
	if err != nil {
		return uc.fail(ctx, run, app, 0, fmt.Sprintf("load lender catalog: %v", err))
	}

	run, err = run.Start(len(catalog), time.Now().UTC())
	if err != nil {
		return run, fmt.Errorf("start run: %w", err)
	}
	if err := uc.persist(ctx, run); err != nil {
		return run, err
	}
	if app, err = uc.markApplication(ctx, app, model.LoanApplication.MarkUnderwriting); err != nil {
		return run, err
	}

	uc.logger.Info("underwriting run started",
		"run_id", run.ID(), "application_id", app.ID, "lender_count", len(catalog))

	results, err := uc.engine.Match(ctx, app, catalog)
	if err != nil {
		msg := fmt.Sprintf("evaluation aborted: %v", err)
		if errors.Is(err, context.Canceled) {
			msg = "cancelled"
		}
		return uc.fail(ctx, run, app, time.Since(started).Seconds(), msg)
	}

	run, err = run.Complete(results, time.Now().UTC())
	if err != nil {
		return run, fmt.Errorf("complete run: %w", err)
	}
	if err := uc.persist(ctx, run); err != nil {
		return run, err
	}
	if _, err := uc.markApplication(ctx, app, model.LoanApplication.MarkCompleted); err != nil {
		return run, err
	}

	uc.runsCompleted.Add(ctx, 1)
	uc.runDuration.Record(ctx, time.Since(started).Seconds())
	uc.logger.Info("underwriting run completed",
		"run_id", run.ID(), "application_id", app.ID, "lender_count", len(results))
	return run, nil
}

// fail moves the run to failed, best-effort. The run context may already be
// cancelled, so persistence and publishing fall back to a detached context.
func (uc *StartUnderwritingRunUseCase) fail(
	ctx context.Context,
	run model.UnderwritingRun,
	app model.LoanApplication,
	elapsed float64,
	msg string,
) (model.UnderwritingRun, error) {
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	if run.Status().Equal(valueobject.RunStatusPending) {
		// A fault before the catalog loaded still deserves a terminal run.
		run, _ = run.Start(0, time.Now().UTC())
	}
	failed, err := run.Fail(msg, time.Now().UTC())
	if err != nil {
		return run, fmt.Errorf("fail run: %w", err)
	}
	if err := uc.persist(ctx, failed); err != nil {
		return failed, err
	}
	if _, err := uc.markApplication(ctx, app, model.LoanApplication.MarkFailed); err != nil {
		return failed, err
	}

	uc.runsFailed.Add(ctx, 1)
	if elapsed > 0 {
		uc.runDuration.Record(ctx, elapsed)
	}
	uc.logger.Warn("underwriting run failed",
		"run_id", failed.ID(), "application_id", app.ID, "error", msg)
	return failed, nil
}

// persist saves the run and publishes its pending events.
func (uc *StartUnderwritingRunUseCase) persist(ctx context.Context, run model.UnderwritingRun) error {
	if err := uc.runRepo.Save(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := uc.publisher.Publish(ctx, run.DomainEvents()...); err != nil {
		// Event delivery is best-effort: the run's state is already durable.
		uc.logger.Error("publish run events", "run_id", run.ID(), "error", err)
	}
	return nil
}

// markApplication applies a status transition to the application and saves it.
// A transition rejected by the state machine is logged, not fatal: the run's
// outcome is authoritative.
func (uc *StartUnderwritingRunUseCase) markApplication(
	ctx context.Context,
	app model.LoanApplication,
	transition func(model.LoanApplication, time.Time) (model.LoanApplication, error),
) (model.LoanApplication, error) {
	next, err := transition(app, time.Now().UTC())
	if err != nil {
		uc.logger.Warn("application status transition rejected",
			"application_id", app.ID, "status", app.Status.String(), "error", err)
		return app, nil
	}
	if err := uc.appRepo.Save(ctx, next); err != nil {
		return app, fmt.Errorf("save application: %w", err)
	}
	return next, nil
}
