package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lendermatch/underwriting-service/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// LoanApplication – read-only input to the decision engine
// ---------------------------------------------------------------------------

// Business describes the borrowing entity.
type Business struct {
	Industry        string          `json:"industry"`
	IndustryCode    *string         `json:"industryCode,omitempty"`
	State           string          `json:"state"`
	YearsInBusiness float64         `json:"yearsInBusiness"`
	AnnualRevenue   decimal.Decimal `json:"annualRevenue"`
	EntityType      *string         `json:"entityType,omitempty"`
}

// Guarantor describes the personal guarantor backing the loan.
type Guarantor struct {
	FICOScore      int   `json:"ficoScore"`
	HasBankruptcy  *bool `json:"hasBankruptcy,omitempty"`
	HasTaxLiens    *bool `json:"hasTaxLiens,omitempty"`
	HasJudgments   *bool `json:"hasJudgments,omitempty"`
	YearsAtAddress *int  `json:"yearsAtAddress,omitempty"`
}

// BusinessCredit holds commercial credit bureau data, when available.
type BusinessCredit struct {
	PaynetScore          *int `json:"paynetScore,omitempty"`
	TradeLinesCount      *int `json:"tradeLinesCount,omitempty"`
	AverageTradeAgeMonth *int `json:"averageTradeAgeMonths,omitempty"`
}

// Equipment describes the asset being financed.
type Equipment struct {
	Type        string           `json:"type"`
	Category    *string          `json:"category,omitempty"`
	AgeYears    *float64         `json:"ageYears,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// LoanRequest is the requested financing.
type LoanRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"termMonths"`
	Equipment  Equipment       `json:"equipment"`
	Purpose    *string         `json:"purpose,omitempty"`
}

// LoanApplication is the full application as submitted by the intake layer.
// The decision engine treats it as an immutable fact set.
type LoanApplication struct {
	ID             string                        `json:"id"`
	Status         valueobject.ApplicationStatus `json:"-"`
	Business       Business                      `json:"business"`
	Guarantor      Guarantor                     `json:"guarantor"`
	BusinessCredit *BusinessCredit               `json:"businessCredit,omitempty"`
	LoanRequest    LoanRequest                   `json:"loanRequest"`
	CreatedAt      time.Time                     `json:"createdAt"`
	UpdatedAt      time.Time                     `json:"updatedAt"`
	SubmittedAt    *time.Time                    `json:"submittedAt,omitempty"`
}

// NewLoanApplication creates a draft application with a generated ID.
func NewLoanApplication(
	business Business,
	guarantor Guarantor,
	businessCredit *BusinessCredit,
	loanRequest LoanRequest,
	now time.Time,
) (LoanApplication, error) {
	app := LoanApplication{
		ID:             uuid.New().String(),
		Status:         valueobject.ApplicationStatusDraft,
		Business:       business,
		Guarantor:      guarantor,
		BusinessCredit: businessCredit,
		LoanRequest:    loanRequest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := app.Validate(); err != nil {
		return LoanApplication{}, err
	}
	return app, nil
}

// Validate enforces the applicant-data invariants. Policy-shape validation
// lives on LenderPolicy; both run at save time, never at evaluation time.
func (a LoanApplication) Validate() error {
	if a.Guarantor.FICOScore < 300 || a.Guarantor.FICOScore > 850 {
		return fmt.Errorf("fico score %d outside valid range [300, 850]", a.Guarantor.FICOScore)
	}
	if a.LoanRequest.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("loan amount must be positive")
	}
	if a.LoanRequest.TermMonths <= 0 {
		return errors.New("term months must be positive")
	}
	if a.Business.State == "" {
		return errors.New("business state is required")
	}
	if a.LoanRequest.Equipment.Type == "" {
		return errors.New("equipment type is required")
	}
	return nil
}

// PaynetScore returns the applicant's PayNet score, if one was provided.
func (a LoanApplication) PaynetScore() *int {
	if a.BusinessCredit == nil {
		return nil
	}
	return a.BusinessCredit.PaynetScore
}

// Submit transitions a draft application to submitted.
func (a LoanApplication) Submit(now time.Time) (LoanApplication, error) {
	if !a.Status.Equal(valueobject.ApplicationStatusDraft) {
		return a, valueobject.ErrInvalidStatusTransition
	}
	next := a
	next.Status = valueobject.ApplicationStatusSubmitted
	next.SubmittedAt = &now
	next.UpdatedAt = now
	return next, nil
}

// MarkUnderwriting records that an underwriting run has started.
func (a LoanApplication) MarkUnderwriting(now time.Time) (LoanApplication, error) {
	if !a.Status.Equal(valueobject.ApplicationStatusSubmitted) &&
		!a.Status.Equal(valueobject.ApplicationStatusCompleted) &&
		!a.Status.Equal(valueobject.ApplicationStatusFailed) {
		return a, valueobject.ErrInvalidStatusTransition
	}
	next := a
	next.Status = valueobject.ApplicationStatusUnderwriting
	next.UpdatedAt = now
	return next, nil
}

// MarkCompleted records a finished underwriting run.
func (a LoanApplication) MarkCompleted(now time.Time) (LoanApplication, error) {
	if !a.Status.Equal(valueobject.ApplicationStatusUnderwriting) {
		return a, valueobject.ErrInvalidStatusTransition
	}
	next := a
	next.Status = valueobject.ApplicationStatusCompleted
	next.UpdatedAt = now
	return next, nil
}

// MarkFailed records a failed underwriting run.
func (a LoanApplication) MarkFailed(now time.Time) (LoanApplication, error) {
	if !a.Status.Equal(valueobject.ApplicationStatusUnderwriting) {
		return a, valueobject.ErrInvalidStatusTransition
	}
	next := a
	next.Status = valueobject.ApplicationStatusFailed
	next.UpdatedAt = now
	return next, nil
}
