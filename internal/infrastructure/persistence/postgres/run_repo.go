package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
	"github.com/lendermatch/underwriting-service/internal/domain/valueobject"
)

// RunRepo implements port.RunRepository. The full result set rides along as
// one JSONB document; runs are written at each state transition and read
// whole.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo creates a repository backed by PostgreSQL.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Save upserts a run by ID.
func (r *RunRepo) Save(ctx context.Context, run model.UnderwritingRun) error {
	results, err := json.Marshal(run.Results())
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	query := `
		INSERT INTO underwriting_runs (
			id, application_id, status, started_at, completed_at,
			results, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			status        = EXCLUDED.status,
			started_at    = EXCLUDED.started_at,
			completed_at  = EXCLUDED.completed_at,
			results       = EXCLUDED.results,
			error_message = EXCLUDED.error_message
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID(), run.ApplicationID(), run.Status().String(),
		run.StartedAt(), run.CompletedAt(), results, run.Error(),
	)
	if err != nil {
		return fmt.Errorf("save underwriting run: %w", err)
	}
	return nil
}

// FindByID retrieves a single run.
func (r *RunRepo) FindByID(ctx context.Context, id string) (model.UnderwritingRun, error) {
	return r.findOne(ctx, runSelect+` WHERE id = $1`, id)
}

// FindLatestByApplicationID retrieves the most recent run for an application.
func (r *RunRepo) FindLatestByApplicationID(ctx context.Context, applicationID string) (model.UnderwritingRun, error) {
	query := runSelect + ` WHERE application_id = $1 ORDER BY started_at DESC, id LIMIT 1`
	return r.findOne(ctx, query, applicationID)
}

const runSelect = `
	SELECT id, application_id, status, started_at, completed_at,
	       results, error_message
	FROM underwriting_runs`

func (r *RunRepo) findOne(ctx context.Context, query string, args ...any) (model.UnderwritingRun, error) {
	var (
		id, applicationID string
		statusStr         string
		startedAt         time.Time
		completedAt       *time.Time
		resultsRaw        []byte
		errMsg            string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&id, &applicationID, &statusStr, &startedAt, &completedAt,
		&resultsRaw, &errMsg,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.UnderwritingRun{}, port.ErrNotFound
	}
	if err != nil {
		return model.UnderwritingRun{}, fmt.Errorf("scan underwriting run: %w", err)
	}

	status, err := valueobject.NewRunStatus(statusStr)
	if err != nil {
		return model.UnderwritingRun{}, fmt.Errorf("parse status: %w", err)
	}

	var results []model.LenderMatchResult
	if len(resultsRaw) > 0 {
		if err := json.Unmarshal(resultsRaw, &results); err != nil {
			return model.UnderwritingRun{}, fmt.Errorf("unmarshal results: %w", err)
		}
	}

	return model.ReconstructUnderwritingRun(
		id, applicationID, status, startedAt, completedAt, results, errMsg,
	), nil
}
