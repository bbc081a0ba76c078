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

// ApplicationRepo implements port.ApplicationRepository. The nested applicant
// shapes are stored as JSONB; only the columns the service filters on are
// broken out.
type ApplicationRepo struct {
	pool *pgxpool.Pool
}

// NewApplicationRepo creates a repository backed by PostgreSQL.
func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

// Save upserts a loan application by ID.
func (r *ApplicationRepo) Save(ctx context.Context, app model.LoanApplication) error {
	business, err := json.Marshal(app.Business)
	if err != nil {
		return fmt.Errorf("marshal business: %w", err)
	}
	guarantor, err := json.Marshal(app.Guarantor)
	if err != nil {
		return fmt.Errorf("marshal guarantor: %w", err)
	}
	var businessCredit []byte
	if app.BusinessCredit != nil {
		if businessCredit, err = json.Marshal(app.BusinessCredit); err != nil {
			return fmt.Errorf("marshal business credit: %w", err)
		}
	}
	loanRequest, err := json.Marshal(app.LoanRequest)
	if err != nil {
		return fmt.Errorf("marshal loan request: %w", err)
	}

	query := `
		INSERT INTO loan_applications (
			id, status, business, guarantor, business_credit, loan_request,
			created_at, updated_at, submitted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			status          = EXCLUDED.status,
			business        = EXCLUDED.business,
			guarantor       = EXCLUDED.guarantor,
			business_credit = EXCLUDED.business_credit,
			loan_request    = EXCLUDED.loan_request,
			updated_at      = EXCLUDED.updated_at,
			submitted_at    = EXCLUDED.submitted_at
	`
	_, err = r.pool.Exec(ctx, query,
		app.ID, app.Status.String(), business, guarantor, businessCredit,
		loanRequest, app.CreatedAt, app.UpdatedAt, app.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("save loan application: %w", err)
	}
	return nil
}

// FindByID retrieves a single loan application.
func (r *ApplicationRepo) FindByID(ctx context.Context, id string) (model.LoanApplication, error) {
	query := applicationSelect + ` WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.LoanApplication{}, port.ErrNotFound
	}
	return app, err
}

// List pages through applications, newest first.
func (r *ApplicationRepo) List(ctx context.Context, limit, offset int) ([]model.LoanApplication, error) {
	query := applicationSelect + ` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query loan applications: %w", err)
	}
	defer rows.Close()

	var result []model.LoanApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

const applicationSelect = `
	SELECT id, status, business, guarantor, business_credit, loan_request,
	       created_at, updated_at, submitted_at
	FROM loan_applications`

type scannable interface {
	Scan(dest ...any) error
}

func scanApplication(s scannable) (model.LoanApplication, error) {
	var (
		id, statusStr                           string
		business, guarantor, credit, loanReq    []byte
		createdAt, updatedAt                    time.Time
		submittedAt                             *time.Time
	)
	if err := s.Scan(&id, &statusStr, &business, &guarantor, &credit, &loanReq,
		&createdAt, &updatedAt, &submittedAt); err != nil {
		return model.LoanApplication{}, fmt.Errorf("scan loan application: %w", err)
	}

	status, err := valueobject.NewApplicationStatus(statusStr)
	if err != nil {
		return model.LoanApplication{}, fmt.Errorf("parse status: %w", err)
	}

	app := model.LoanApplication{
		ID:          id,
		Status:      status,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		SubmittedAt: submittedAt,
	}
	if err := json.Unmarshal(business, &app.Business); err != nil {
		return model.LoanApplication{}, fmt.Errorf("unmarshal business: %w", err)
	}
	if err := json.Unmarshal(guarantor, &app.Guarantor); err != nil {
		return model.LoanApplication{}, fmt.Errorf("unmarshal guarantor: %w", err)
	}
	if len(credit) > 0 {
		app.BusinessCredit = &model.BusinessCredit{}
		if err := json.Unmarshal(credit, app.BusinessCredit); err != nil {
			return model.LoanApplication{}, fmt.Errorf("unmarshal business credit: %w", err)
		}
	}
	if err := json.Unmarshal(loanReq, &app.LoanRequest); err != nil {
		return model.LoanApplication{}, fmt.Errorf("unmarshal loan request: %w", err)
	}
	return app, nil
}
