package port

import (
	"context"
	"errors"

	"github.com/lendermatch/underwriting-service/internal/domain/event"
	"github.com/lendermatch/underwriting-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Outbound ports – implemented by the infrastructure layer
// ---------------------------------------------------------------------------

// ErrNotFound is returned by repositories when the requested aggregate does
// not exist.
var ErrNotFound = errors.New("not found")

// ApplicationRepository persists loan applications.
type ApplicationRepository interface {
	Save(ctx context.Context, app model.LoanApplication) error
	FindByID(ctx context.Context, id string) (model.LoanApplication, error)
	List(ctx context.Context, limit, offset int) ([]model.LoanApplication, error)
}

// PolicyRepository persists lender credit policies and serves the catalog.
type PolicyRepository interface {
	Save(ctx context.Context, policy model.LenderPolicy) error
	FindByID(ctx context.Context, id string) (model.LenderPolicy, error)
	FindBySlug(ctx context.Context, slug string) (model.LenderPolicy, error)
	ListAll(ctx context.Context) ([]model.LenderPolicy, error)
	Delete(ctx context.Context, id string) error
}

// RunRepository persists underwriting runs and their results.
type RunRepository interface {
	Save(ctx context.Context, run model.UnderwritingRun) error
	FindByID(ctx context.Context, id string) (model.UnderwritingRun, error)
	FindLatestByApplicationID(ctx context.Context, applicationID string) (model.UnderwritingRun, error)
}

// EventPublisher pushes domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}
