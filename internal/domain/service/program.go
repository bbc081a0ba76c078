package service

import (
	"github.com/lendermatch/underwriting-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Program evaluation
// ---------------------------------------------------------------------------

// ProgramEvaluation is the verdict for one program: whether every applicable
// criterion passed, the program's fit contribution, and the per-criterion
// breakdown.
type ProgramEvaluation struct {
	Program         model.Program
	Eligible        bool
	FitContribution float64
	Results         []model.CriterionResult
}

// FailureReasons returns the reasons of the unmet criteria, in result order.
func (pe ProgramEvaluation) FailureReasons() []string {
	var reasons []string
	for _, r := range pe.Results {
		if !r.Met {
			reasons = append(reasons, r.Reason)
		}
	}
	return reasons
}

// ProgramEvaluator runs the criteria set of one program and scores the fit.
type ProgramEvaluator struct {
	criteria *CriteriaEvaluator
	scorer   *FitScorer
}

// NewProgramEvaluator wires a criteria evaluator and fit scorer together.
func NewProgramEvaluator(criteria *CriteriaEvaluator, scorer *FitScorer) *ProgramEvaluator {
	return &ProgramEvaluator{criteria: criteria, scorer: scorer}
}

// Evaluate judges one program against the application. Eligibility requires
// every applicable criterion to pass; the fit contribution is computed either
// way so ineligible programs can still be ranked.
func (e *ProgramEvaluator) Evaluate(program model.Program, app model.LoanApplication) ProgramEvaluation {
	results := e.criteria.Evaluate(program.Criteria, app)

	eligible := true
	for _, r := range results {
		if !r.Met {
			eligible = false
			break
		}
	}

	return ProgramEvaluation{
		Program:         program,
		Eligible:        eligible,
		FitContribution: e.scorer.Score(program.Criteria, app, results),
		Results:         results,
	}
}
