package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/domain/event"
	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
)

// SubmitApplicationUseCase creates a loan application and submits it for
// underwriting in one step.
type SubmitApplicationUseCase struct {
	appRepo   port.ApplicationRepository
	publisher port.EventPublisher
}

// NewSubmitApplicationUseCase wires dependencies.
func NewSubmitApplicationUseCase(
	appRepo port.ApplicationRepository,
	publisher port.EventPublisher,
) *SubmitApplicationUseCase {
	return &SubmitApplicationUseCase{appRepo: appRepo, publisher: publisher}
}

// Execute validates, persists, and submits a new application.
func (uc *SubmitApplicationUseCase) Execute(
	ctx context.Context,
	req dto.CreateApplicationRequest,
) (dto.ApplicationResponse, error) {
	now := time.Now().UTC()

	app, err := model.NewLoanApplication(req.Business, req.Guarantor, req.BusinessCredit, req.LoanRequest, now)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("create application: %w", err)
	}

	app, err = app.Submit(now)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("submit application: %w", err)
	}

	if err := uc.appRepo.Save(ctx, app); err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("save application: %w", err)
	}

	submitted := event.NewLoanApplicationSubmitted(
		app.ID,
		app.Business.State,
		app.Business.Industry,
		app.LoanRequest.Amount.String(),
		app.LoanRequest.TermMonths,
	)
	if err := uc.publisher.Publish(ctx, submitted); err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return dto.NewApplicationResponse(app), nil
}
