package usecase

import (
	"context"
	"fmt"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
)

// GetRunUseCase serves underwriting run lookups.
type GetRunUseCase struct {
	runRepo port.RunRepository
}

// NewGetRunUseCase wires dependencies.
func NewGetRunUseCase(runRepo port.RunRepository) *GetRunUseCase {
	return &GetRunUseCase{runRepo: runRepo}
}

// Execute fetches a run by ID.
func (uc *GetRunUseCase) Execute(ctx context.Context, runID string) (dto.RunResponse, error) {
	run, err := uc.runRepo.FindByID(ctx, runID)
	if err != nil {
		return dto.RunResponse{}, fmt.Errorf("load run: %w", err)
	}
	return dto.NewRunResponse(run), nil
}

// ExecuteLatestForApplication fetches the most recent run for an application.
func (uc *GetRunUseCase) ExecuteLatestForApplication(ctx context.Context, applicationID string) (dto.RunResponse, error) {
	run, err := uc.runRepo.FindLatestByApplicationID(ctx, applicationID)
	if err != nil {
		return dto.RunResponse{}, fmt.Errorf("load latest run: %w", err)
	}
	return dto.NewRunResponse(run), nil
}
