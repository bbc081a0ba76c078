package model

// ---------------------------------------------------------------------------
// Match results – the engine's output, one entry per lender in the catalog
// ---------------------------------------------------------------------------

// CriterionResult explains one evaluated criterion. Criteria that are not
// applicable to a program are omitted from the result list, never reported
// as failures.
type CriterionResult struct {
	Name     string `json:"name"`
	Met      bool   `json:"met"`
	Reason   string `json:"reason"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// ProgramRef identifies the best qualifying program on an eligible result.
type ProgramRef struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Tier *string `json:"tier,omitempty"`
}

// LenderMatchResult is the per-lender verdict: eligibility, a 0-100 fit score
// usable for ranking (including for ineligible lenders), the best program, and
// the per-criterion breakdown of the program chosen for reporting.
type LenderMatchResult struct {
	LenderID         string            `json:"lenderId"`
	LenderName       string            `json:"lenderName"`
	Eligible         bool              `json:"eligible"`
	FitScore         int               `json:"fitScore"`
	BestProgram      *ProgramRef       `json:"bestProgram,omitempty"`
	RejectionReasons []string          `json:"rejectionReasons"`
	CriteriaResults  []CriterionResult `json:"criteriaResults"`
}
