package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
)

// SavePolicyUseCase creates or updates a lender credit policy. Policy-shape
// validation happens here, at save time, so the engine can assume stored
// policies are well-formed and stay total over malformed stragglers.
type SavePolicyUseCase struct {
	policyRepo port.PolicyRepository
}

// NewSavePolicyUseCase wires dependencies.
func NewSavePolicyUseCase(policyRepo port.PolicyRepository) *SavePolicyUseCase {
	return &SavePolicyUseCase{policyRepo: policyRepo}
}

// ExecuteCreate validates and persists a new policy.
func (uc *SavePolicyUseCase) ExecuteCreate(
	ctx context.Context,
	req dto.SavePolicyRequest,
) (dto.PolicyResponse, error) {
	now := time.Now().UTC()
	policy := model.LenderPolicy{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Slug:           normalizeSlug(req.Slug, req.Name),
		Description:    req.Description,
		SourceDocument: req.SourceDocument,
		Programs:       withProgramIDs(req.Programs),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := policy.Validate(); err != nil {
		return dto.PolicyResponse{}, fmt.Errorf("validate policy: %w", err)
	}
	if err := uc.policyRepo.Save(ctx, policy); err != nil {
		return dto.PolicyResponse{}, fmt.Errorf("save policy: %w", err)
	}
	return dto.NewPolicyResponse(policy), nil
}

// ExecuteUpdate validates and replaces an existing policy.
func (uc *SavePolicyUseCase) ExecuteUpdate(
	ctx context.Context,
	id string,
	req dto.SavePolicyRequest,
) (dto.PolicyResponse, error) {
	existing, err := uc.policyRepo.FindByID(ctx, id)
	if err != nil {
		return dto.PolicyResponse{}, fmt.Errorf("load policy: %w", err)
	}

	policy := existing
	policy.Name = req.Name
	policy.Slug = normalizeSlug(req.Slug, req.Name)
	policy.Description = req.Description
	policy.SourceDocument = req.SourceDocument
	policy.Programs = withProgramIDs(req.Programs)
	policy.UpdatedAt = time.Now().UTC()

	if err := policy.Validate(); err != nil {
		return dto.PolicyResponse{}, fmt.Errorf("validate policy: %w", err)
	}
	if err := uc.policyRepo.Save(ctx, policy); err != nil {
		return dto.PolicyResponse{}, fmt.Errorf("save policy: %w", err)
	}
	return dto.NewPolicyResponse(policy), nil
}

// ExecuteDelete removes a policy from the catalog.
func (uc *SavePolicyUseCase) ExecuteDelete(ctx context.Context, id string) error {
	if err := uc.policyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	return nil
}

// withProgramIDs assigns IDs to programs that arrived without one.
func withProgramIDs(programs []model.Program) []model.Program {
	out := make([]model.Program, len(programs))
	copy(out, programs)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.New().String()
		}
	}
	return out
}

// normalizeSlug lowercases and hyphenates, deriving the slug from the name
// when none was supplied.
func normalizeSlug(slug, name string) string {
	if slug == "" {
		slug = name
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	return strings.Join(strings.Fields(slug), "-")
}
