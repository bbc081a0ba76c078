package dto

import (
	"time"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Application-layer DTOs – the shapes the REST layer sends and receives
// ---------------------------------------------------------------------------

// CreateApplicationRequest carries a new loan application. The nested shapes
// reuse the domain structs, which already define the wire format.
type CreateApplicationRequest struct {
	Business       model.Business        `json:"business"`
	Guarantor      model.Guarantor       `json:"guarantor"`
	BusinessCredit *model.BusinessCredit `json:"businessCredit,omitempty"`
	LoanRequest    model.LoanRequest     `json:"loanRequest"`
}

// ApplicationResponse is the API view of a loan application.
type ApplicationResponse struct {
	ID             string                `json:"id"`
	Status         string                `json:"status"`
	Business       model.Business        `json:"business"`
	Guarantor      model.Guarantor       `json:"guarantor"`
	BusinessCredit *model.BusinessCredit `json:"businessCredit,omitempty"`
	LoanRequest    model.LoanRequest     `json:"loanRequest"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	SubmittedAt    *time.Time            `json:"submittedAt,omitempty"`
}

// NewApplicationResponse maps a domain application to its API view.
func NewApplicationResponse(app model.LoanApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:             app.ID,
		Status:         app.Status.String(),
		Business:       app.Business,
		Guarantor:      app.Guarantor,
		BusinessCredit: app.BusinessCredit,
		LoanRequest:    app.LoanRequest,
		CreatedAt:      app.CreatedAt,
		UpdatedAt:      app.UpdatedAt,
		SubmittedAt:    app.SubmittedAt,
	}
}

// SavePolicyRequest carries a lender policy create or update.
type SavePolicyRequest struct {
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    *string         `json:"description,omitempty"`
	SourceDocument *string         `json:"sourceDocument,omitempty"`
	Programs       []model.Program `json:"programs"`
}

// PolicyResponse is the API view of a lender policy.
type PolicyResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    *string         `json:"description,omitempty"`
	SourceDocument *string         `json:"sourceDocument,omitempty"`
	Programs       []model.Program `json:"programs"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// NewPolicyResponse maps a domain policy to its API view.
func NewPolicyResponse(p model.LenderPolicy) PolicyResponse {
	return PolicyResponse{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		SourceDocument: p.SourceDocument,
		Programs:       p.Programs,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// StartRunResponse acknowledges an underwriting run submission. When a run is
// already in flight for the application, the existing run is acknowledged
// instead of starting a duplicate.
type StartRunResponse struct {
	RunID          string `json:"runId"`
	ApplicationID  string `json:"applicationId"`
	Status         string `json:"status"`
	AlreadyRunning bool   `json:"alreadyRunning"`
}

// RunSummary aggregates a completed run's headline numbers.
type RunSummary struct {
	TotalLenders    int    `json:"totalLenders"`
	EligibleLenders int    `json:"eligibleLenders"`
	TopFitScore     int    `json:"topFitScore"`
	TopFitLenderID  string `json:"topFitLenderId,omitempty"`
}

// RunResponse is the API view of an underwriting run. Results are sorted for
// presentation: eligible lenders first, then by fit score descending.
type RunResponse struct {
	RunID         string                    `json:"runId"`
	ApplicationID string                    `json:"applicationId"`
	Status        string                    `json:"status"`
	StartedAt     time.Time                 `json:"startedAt"`
	CompletedAt   *time.Time                `json:"completedAt,omitempty"`
	Error         string                    `json:"error,omitempty"`
	Summary       *RunSummary               `json:"summary,omitempty"`
	Results       []model.LenderMatchResult `json:"results"`
}

// NewRunResponse maps a domain run to its API view.
func NewRunResponse(run model.UnderwritingRun) RunResponse {
	resp := RunResponse{
		RunID:         run.ID(),
		ApplicationID: run.ApplicationID(),
		Status:        run.Status().String(),
		StartedAt:     run.StartedAt(),
		CompletedAt:   run.CompletedAt(),
		Error:         run.Error(),
		Results:       run.Results(),
	}
	if resp.Results == nil {
		resp.Results = []model.LenderMatchResult{}
	}
	if run.Status().String() == "completed" {
		summary := RunSummary{TotalLenders: len(resp.Results)}
		for _, r := range resp.Results {
			if r.Eligible {
				summary.EligibleLenders++
			}
			if r.FitScore > summary.TopFitScore {
				summary.TopFitScore = r.FitScore
				summary.TopFitLenderID = r.LenderID
			}
		}
		resp.Summary = &summary
	}
	return resp
}
