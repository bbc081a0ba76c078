package usecase

import (
	"context"
	"fmt"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
)

// ListPoliciesUseCase serves lender policy lookups.
type ListPoliciesUseCase struct {
	policyRepo port.PolicyRepository
}

// NewListPoliciesUseCase wires dependencies.
func NewListPoliciesUseCase(policyRepo port.PolicyRepository) *ListPoliciesUseCase {
	return &ListPoliciesUseCase{policyRepo: policyRepo}
}

// Execute lists the whole lender catalog.
func (uc *ListPoliciesUseCase) Execute(ctx context.Context) ([]dto.PolicyResponse, error) {
	policies, err := uc.policyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	out := make([]dto.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, dto.NewPolicyResponse(p))
	}
	return out, nil
}

// ExecuteGet fetches one policy by ID, falling back to slug lookup.
func (uc *ListPoliciesUseCase) ExecuteGet(ctx context.Context, idOrSlug string) (dto.PolicyResponse, error) {
	policy, err := uc.policyRepo.FindByID(ctx, idOrSlug)
	if err != nil {
		policy, err = uc.policyRepo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return dto.PolicyResponse{}, fmt.Errorf("load policy: %w", err)
	}
	return dto.NewPolicyResponse(policy), nil
}
