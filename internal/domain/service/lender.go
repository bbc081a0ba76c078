package service

import (
	"math"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Lender evaluation
// ---------------------------------------------------------------------------

// LenderEvaluator judges one lender's full policy: evaluates every program,
// picks the best qualifying one, and assembles the per-lender match result.
type LenderEvaluator struct {
	programs *ProgramEvaluator
}

// NewLenderEvaluator wraps a program evaluator.
func NewLenderEvaluator(programs *ProgramEvaluator) *LenderEvaluator {
	return &LenderEvaluator{programs: programs}
}

// Evaluate produces the match result for one lender. The lender is eligible
// when at least one program passes every applicable criterion. The reported
// fit score, criteria breakdown, and rejection reasons come from a single
// program: the best qualifying one when eligible, otherwise the nearest miss.
func (e *LenderEvaluator) Evaluate(policy model.LenderPolicy, app model.LoanApplication) model.LenderMatchResult {
	result := model.LenderMatchResult{
		LenderID:         policy.ID,
		LenderName:       policy.Name,
		RejectionReasons: []string{},
		CriteriaResults:  []model.CriterionResult{},
	}

	if len(policy.Programs) == 0 {
		result.RejectionReasons = append(result.RejectionReasons, "No programs defined for this lender")
		return result
	}

	evals := make([]ProgramEvaluation, 0, len(policy.Programs))
	for _, prog := range policy.Programs {
		evals = append(evals, e.programs.Evaluate(prog, app))
	}

	if best, ok := bestEligible(evals); ok {
		result.Eligible = true
		result.FitScore = roundScore(best.FitContribution)
		result.BestProgram = &model.ProgramRef{
			ID:   best.Program.ID,
			Name: best.Program.Name,
			Tier: best.Program.Tier,
		}
		result.CriteriaResults = best.Results
		return result
	}

	nearest := nearestMiss(evals)
	result.FitScore = roundScore(nearest.FitContribution)
	result.CriteriaResults = nearest.Results
	result.RejectionReasons = append(result.RejectionReasons, nearest.FailureReasons()...)
	return result
}

// bestEligible picks the eligible program with the highest fit contribution;
// ties go to the earlier program in policy order.
func bestEligible(evals []ProgramEvaluation) (ProgramEvaluation, bool) {
	var best ProgramEvaluation
	found := false
	for _, pe := range evals {
		if !pe.Eligible {
			continue
		}
		if !found || pe.FitContribution > best.FitContribution {
			best = pe
			found = true
		}
	}
	return best, found
}

// nearestMiss picks the program whose rejection is most explainable: fewest
// unmet criteria, then highest fit contribution, then policy order.
func nearestMiss(evals []ProgramEvaluation) ProgramEvaluation {
	best := evals[0]
	bestFailures := len(best.FailureReasons())
	for _, pe := range evals[1:] {
		failures := len(pe.FailureReasons())
		if failures < bestFailures ||
			(failures == bestFailures && pe.FitContribution > best.FitContribution) {
			best = pe
			bestFailures = failures
		}
	}
	return best
}

func roundScore(v float64) int {
	return int(math.Round(clamp(v, 0, 100)))
}
