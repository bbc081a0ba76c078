package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/service"
)

func newLenderEvaluator() *service.LenderEvaluator {
	criteria := service.NewCriteriaEvaluator()
	scorer := service.NewFitScorer()
	return service.NewLenderEvaluator(service.NewProgramEvaluator(criteria, scorer))
}

func singleProgramPolicy(id, name string, criteria model.LenderPolicyCriteria) model.LenderPolicy {
	return model.LenderPolicy{
		ID:   id,
		Name: name,
		Programs: []model.Program{
			{ID: id + "-p1", Name: name + " Standard", Criteria: criteria},
		},
	}
}

func TestLenderEvaluator_StrongQualifier(t *testing.T) {
	// FICO 720 / PayNet 65 / 8 years / $150K request against FICO≥700,
	// PayNet≥60, $25K–$500K, ≥2 years.
	eval := newLenderEvaluator()
	policy := singleProgramPolicy("lender-a", "Apex Capital", fullCriteria())

	result := eval.Evaluate(policy, strongApplicant())

	assert.True(t, result.Eligible)
	assert.GreaterOrEqual(t, result.FitScore, 85)
	assert.Empty(t, result.RejectionReasons)
	require.NotNil(t, result.BestProgram)
	assert.Equal(t, "lender-a-p1", result.BestProgram.ID)
	assert.Len(t, result.CriteriaResults, 4)
}

func TestLenderEvaluator_AmountCeilingRejection(t *testing.T) {
	eval := newLenderEvaluator()
	criteria := fullCriteria()
	criteria.LoanAmount.MaxAmount = money(75_000)
	policy := singleProgramPolicy("lender-b", "Summit Funding", criteria)

	result := eval.Evaluate(policy, strongApplicant())

	assert.False(t, result.Eligible)
	assert.Nil(t, result.BestProgram)
	require.Len(t, result.RejectionReasons, 1)
	assert.Equal(t, "Maximum loan amount is $75,000 but requested amount is $150,000",
		result.RejectionReasons[0])

	// Passing criteria still show up in the breakdown.
	fico := resultByName(t, result.CriteriaResults, service.CriterionFICO)
	assert.True(t, fico.Met)
	tib := resultByName(t, result.CriteriaResults, service.CriterionTimeInBusiness)
	assert.True(t, tib.Met)
}

func TestLenderEvaluator_ZeroPrograms(t *testing.T) {
	eval := newLenderEvaluator()
	policy := model.LenderPolicy{ID: "lender-c", Name: "Empty Shell Capital"}

	result := eval.Evaluate(policy, strongApplicant())

	assert.False(t, result.Eligible)
	assert.Equal(t, 0, result.FitScore)
	assert.Nil(t, result.BestProgram)
	assert.Equal(t, []string{"No programs defined for this lender"}, result.RejectionReasons)
	assert.Empty(t, result.CriteriaResults)
}

func TestLenderEvaluator_BestProgramAcrossTiers(t *testing.T) {
	eval := newLenderEvaluator()

	standard := baseCriteria()
	standard.Fico = &model.FicoCriteria{MinScore: 650}
	elite := baseCriteria()
	elite.Fico = &model.FicoCriteria{MinScore: 750}

	policy := model.LenderPolicy{
		ID:   "lender-d",
		Name: "Two Tier Finance",
		Programs: []model.Program{
			{ID: "prog-650", Name: "Standard", Tier: strPtr("standard"), Criteria: standard},
			{ID: "prog-750", Name: "Elite", Tier: strPtr("elite"), Criteria: elite},
		},
	}

	result := eval.Evaluate(policy, strongApplicant()) // FICO 720

	assert.True(t, result.Eligible)
	require.NotNil(t, result.BestProgram)
	assert.Equal(t, "prog-650", result.BestProgram.ID)
	assert.Equal(t, "Standard", result.BestProgram.Name)
}

func TestLenderEvaluator_EligibleTieBreaksByDeclarationOrder(t *testing.T) {
	eval := newLenderEvaluator()

	// Identical criteria, identical fit contribution: first listed wins.
	policy := model.LenderPolicy{
		ID:   "lender-e",
		Name: "Mirror Lending",
		Programs: []model.Program{
			{ID: "prog-first", Name: "First", Criteria: fullCriteria()},
			{ID: "prog-second", Name: "Second", Criteria: fullCriteria()},
		},
	}

	result := eval.Evaluate(policy, strongApplicant())

	require.NotNil(t, result.BestProgram)
	assert.Equal(t, "prog-first", result.BestProgram.ID)
}

func TestLenderEvaluator_NearestMissReporting(t *testing.T) {
	eval := newLenderEvaluator()

	// One program misses on two criteria, the other only on one: the
	// one-failure program is reported.
	twoMisses := fullCriteria()
	twoMisses.Fico = &model.FicoCriteria{MinScore: 780}
	twoMisses.Paynet = &model.PaynetCriteria{MinScore: intPtr(80)}

	oneMiss := fullCriteria()
	oneMiss.Fico = &model.FicoCriteria{MinScore: 780}

	policy := model.LenderPolicy{
		ID:   "lender-f",
		Name: "Steep Cliff Capital",
		Programs: []model.Program{
			{ID: "prog-two", Name: "Two Misses", Criteria: twoMisses},
			{ID: "prog-one", Name: "One Miss", Criteria: oneMiss},
		},
	}

	result := eval.Evaluate(policy, strongApplicant())

	assert.False(t, result.Eligible)
	require.Len(t, result.RejectionReasons, 1)
	assert.Equal(t, "FICO 720 below minimum 780", result.RejectionReasons[0])
	assert.Greater(t, result.FitScore, 0, "near-miss fit score still ranks the lender")
}

func TestLenderEvaluator_FitScoreRankingAmongIneligible(t *testing.T) {
	eval := newLenderEvaluator()

	nearMiss := fullCriteria()
	nearMiss.Fico = &model.FicoCriteria{MinScore: 730}

	farMiss := fullCriteria()
	farMiss.Fico = &model.FicoCriteria{MinScore: 800}
	farMiss.Paynet = &model.PaynetCriteria{MinScore: intPtr(90)}
	farMiss.TimeInBusiness = &model.TimeInBusinessCriteria{MinYears: 15}

	near := eval.Evaluate(singleProgramPolicy("lender-near", "Near Miss", nearMiss), strongApplicant())
	far := eval.Evaluate(singleProgramPolicy("lender-far", "Far Miss", farMiss), strongApplicant())

	assert.False(t, near.Eligible)
	assert.False(t, far.Eligible)
	assert.Greater(t, near.FitScore, far.FitScore)
}
