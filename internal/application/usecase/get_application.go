package usecase

import (
	"context"
	"fmt"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
)

// GetApplicationUseCase serves loan application lookups.
type GetApplicationUseCase struct {
	appRepo port.ApplicationRepository
}

// NewGetApplicationUseCase wires dependencies.
func NewGetApplicationUseCase(appRepo port.ApplicationRepository) *GetApplicationUseCase {
	return &GetApplicationUseCase{appRepo: appRepo}
}

// Execute fetches an application by ID.
func (uc *GetApplicationUseCase) Execute(ctx context.Context, id string) (dto.ApplicationResponse, error) {
	app, err := uc.appRepo.FindByID(ctx, id)
	if err != nil {
		return dto.ApplicationResponse{}, fmt.Errorf("load application: %w", err)
	}
	return dto.NewApplicationResponse(app), nil
}

// ExecuteList pages through applications, newest first.
func (uc *GetApplicationUseCase) ExecuteList(ctx context.Context, limit, offset int) ([]dto.ApplicationResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	apps, err := uc.appRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	out := make([]dto.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, dto.NewApplicationResponse(app))
	}
	return out, nil
}
