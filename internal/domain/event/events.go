package event

import (
	"github.com/lendermatch/underwriting-service/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// ---------------------------------------------------------------------------
// Underwriting Run Events
// ---------------------------------------------------------------------------

// UnderwritingRunStarted is raised when a run begins evaluating the catalog.
type UnderwritingRunStarted struct {
	events.BaseEvent
	ApplicationID string `json:"application_id"`
	LenderCount   int    `json:"lender_count"`
}

func NewUnderwritingRunStarted(runID, applicationID string, lenderCount int) UnderwritingRunStarted {
	return UnderwritingRunStarted{
		BaseEvent:     events.NewBaseEvent("underwriting.run.started", runID, "UnderwritingRun"),
		ApplicationID: applicationID,
		LenderCount:   lenderCount,
	}
}

// UnderwritingRunCompleted is raised when every lender evaluation has finished.
// A run with zero eligible lenders still completes normally.
type UnderwritingRunCompleted struct {
	events.BaseEvent
	ApplicationID  string `json:"application_id"`
	LenderCount    int    `json:"lender_count"`
	EligibleCount  int    `json:"eligible_count"`
	TopFitScore    int    `json:"top_fit_score"`
	TopFitLenderID string `json:"top_fit_lender_id,omitempty"`
}

func NewUnderwritingRunCompleted(
	runID, applicationID string,
	lenderCount, eligibleCount, topFitScore int,
	topFitLenderID string,
) UnderwritingRunCompleted {
	return UnderwritingRunCompleted{
		BaseEvent:      events.NewBaseEvent("underwriting.run.completed", runID, "UnderwritingRun"),
		ApplicationID:  applicationID,
		LenderCount:    lenderCount,
		EligibleCount:  eligibleCount,
		TopFitScore:    topFitScore,
		TopFitLenderID: topFitLenderID,
	}
}

// UnderwritingRunFailed is raised only on an internal fault or cancellation,
// never on a normal zero-eligible-lenders outcome.
type UnderwritingRunFailed struct {
	events.BaseEvent
	ApplicationID string `json:"application_id"`
	Error         string `json:"error"`
}

func NewUnderwritingRunFailed(runID, applicationID, errMsg string) UnderwritingRunFailed {
	return UnderwritingRunFailed{
		BaseEvent:     events.NewBaseEvent("underwriting.run.failed", runID, "UnderwritingRun"),
		ApplicationID: applicationID,
		Error:         errMsg,
	}
}

// ---------------------------------------------------------------------------
// Loan Application Events
// ---------------------------------------------------------------------------

// LoanApplicationSubmitted is raised when an application leaves draft.
type LoanApplicationSubmitted struct {
	events.BaseEvent
	State           string `json:"state"`
	Industry        string `json:"industry"`
	RequestedAmount string `json:"requested_amount"`
	TermMonths      int    `json:"term_months"`
}

func NewLoanApplicationSubmitted(
	applicationID, state, industry, requestedAmount string, termMonths int,
) LoanApplicationSubmitted {
	return LoanApplicationSubmitted{
		BaseEvent:       events.NewBaseEvent("underwriting.application.submitted", applicationID, "LoanApplication"),
		State:           state,
		Industry:        industry,
		RequestedAmount: requestedAmount,
		TermMonths:      termMonths,
	}
}
