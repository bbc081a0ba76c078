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
)

// PolicyRepo implements port.PolicyRepository. Programs, including their full
// criteria trees, are stored as one JSONB document per policy; the catalog is
// read whole on every run, so there is nothing to gain from normalizing them.
type PolicyRepo struct {
	pool *pgxpool.Pool
}

// NewPolicyRepo creates a repository backed by PostgreSQL.
func NewPolicyRepo(pool *pgxpool.Pool) *PolicyRepo {
	return &PolicyRepo{pool: pool}
}

// Save upserts a lender policy by ID.
func (r *PolicyRepo) Save(ctx context.Context, policy model.LenderPolicy) error {
	programs, err := json.Marshal(policy.Programs)
	if err != nil {
		return fmt.Errorf("marshal programs: %w", err)
	}

	query := `
		INSERT INTO lender_policies (
			id, name, slug, description, source_document, programs,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
			name            = EXCLUDED.name,
			slug            = EXCLUDED.slug,
			description     = EXCLUDED.description,
			source_document = EXCLUDED.source_document,
			programs        = EXCLUDED.programs,
			updated_at      = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		policy.ID, policy.Name, policy.Slug, policy.Description,
		policy.SourceDocument, programs, policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save lender policy: %w", err)
	}
	return nil
}

// FindByID retrieves a single policy.
func (r *PolicyRepo) FindByID(ctx context.Context, id string) (model.LenderPolicy, error) {
	return r.findOne(ctx, policySelect+` WHERE id = $1`, id)
}

// FindBySlug retrieves a single policy by its URL-safe slug.
func (r *PolicyRepo) FindBySlug(ctx context.Context, slug string) (model.LenderPolicy, error) {
	return r.findOne(ctx, policySelect+` WHERE slug = $1`, slug)
}

// ListAll returns the whole lender catalog in stable order. Insertion order
// is the catalog order the engine reports results in.
func (r *PolicyRepo) ListAll(ctx context.Context) ([]model.LenderPolicy, error) {
	rows, err := r.pool.Query(ctx, policySelect+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query lender policies: %w", err)
	}
	defer rows.Close()

	var result []model.LenderPolicy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	return result, rows.Err()
}

// Delete removes a policy.
func (r *PolicyRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lender_policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lender policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	return nil
}

const policySelect = `
	SELECT id, name, slug, description, source_document, programs,
	       created_at, updated_at
	FROM lender_policies`

func (r *PolicyRepo) findOne(ctx context.Context, query string, args ...any) (model.LenderPolicy, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	policy, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LenderPolicy{}, port.ErrNotFound
	}
	return policy, err
}

func scanPolicy(s scannable) (model.LenderPolicy, error) {
	var (
		id, name, slug       string
		description, srcDoc  *string
		programs             []byte
		createdAt, updatedAt time.Time
	)
	if err := s.Scan(&id, &name, &slug, &description, &srcDoc, &programs,
		&createdAt, &updatedAt); err != nil {
		return model.LenderPolicy{}, fmt.Errorf("scan lender policy: %w", err)
	}

	policy := model.LenderPolicy{
		ID:             id,
		Name:           name,
		Slug:           slug,
		Description:    description,
		SourceDocument: srcDoc,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
	if err := json.Unmarshal(programs, &policy.Programs); err != nil {
		return model.LenderPolicy{}, fmt.Errorf("unmarshal programs: %w", err)
	}
	return policy, nil
}
