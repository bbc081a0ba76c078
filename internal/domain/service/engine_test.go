package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/service"
)

func newEngine(criteria *service.CriteriaEvaluator, workerCap int) *service.MatchEngine {
	scorer := service.NewFitScorer()
	lenders := service.NewLenderEvaluator(service.NewProgramEvaluator(criteria, scorer))
	return service.NewMatchEngine(lenders, slog.Default(), workerCap)
}

func testCatalog(n int) []model.LenderPolicy {
	catalog := make([]model.LenderPolicy, 0, n)
	for i := 0; i < n; i++ {
		criteria := fullCriteria()
		criteria.Fico = &model.FicoCriteria{MinScore: 600 + i*10}
		catalog = append(catalog, singleProgramPolicy(
			fmt.Sprintf("lender-%02d", i),
			fmt.Sprintf("Lender %02d", i),
			criteria,
		))
	}
	return catalog
}

func TestMatchEngine_EveryLenderReported(t *testing.T) {
	engine := newEngine(service.NewCriteriaEvaluator(), 4)
	catalog := testCatalog(17)

	results, err := engine.Match(context.Background(), strongApplicant(), catalog)

	require.NoError(t, err)
	require.Len(t, results, len(catalog))
	for i, res := range results {
		assert.Equal(t, catalog[i].ID, res.LenderID, "catalog order preserved at %d", i)
	}
}

func TestMatchEngine_Deterministic(t *testing.T) {
	engine := newEngine(service.NewCriteriaEvaluator(), 3)
	catalog := testCatalog(9)
	app := strongApplicant()

	first, err := engine.Match(context.Background(), app, catalog)
	require.NoError(t, err)
	second, err := engine.Match(context.Background(), app, catalog)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatchEngine_EligibilityInvariants(t *testing.T) {
	engine := newEngine(service.NewCriteriaEvaluator(), 4)

	results, err := engine.Match(context.Background(), strongApplicant(), testCatalog(17))
	require.NoError(t, err)

	for _, res := range results {
		if res.Eligible {
			assert.NotNil(t, res.BestProgram, "lender %s", res.LenderID)
			assert.Empty(t, res.RejectionReasons, "lender %s", res.LenderID)
		} else {
			assert.Nil(t, res.BestProgram, "lender %s", res.LenderID)
			assert.NotEmpty(t, res.RejectionReasons, "lender %s", res.LenderID)
		}
	}
}

func TestMatchEngine_PanicIsolation(t *testing.T) {
	criteria := service.NewCriteriaEvaluator()
	criteria.RegisterPredicate("explodes", func(model.LoanApplication) (bool, string) {
		panic("predicate blew up")
	})
	engine := newEngine(criteria, 2)

	catalog := testCatalog(3)
	faulty := fullCriteria()
	faulty.CustomRules = []model.CustomRule{{Name: "explodes"}}
	catalog[1] = singleProgramPolicy("lender-faulty", "Faulty Finance", faulty)

	results, err := engine.Match(context.Background(), strongApplicant(), catalog)

	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.False(t, results[1].Eligible)
	assert.Equal(t, []string{"Evaluation error"}, results[1].RejectionReasons)

	// Neighbors are unaffected.
	assert.Equal(t, "lender-00", results[0].LenderID)
	assert.True(t, results[0].Eligible)
	assert.Equal(t, "lender-02", results[2].LenderID)
}

func TestMatchEngine_Cancellation(t *testing.T) {
	engine := newEngine(service.NewCriteriaEvaluator(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := engine.Match(ctx, strongApplicant(), testCatalog(50))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results, "partial results are discarded")
}

func TestMatchEngine_EmptyCatalog(t *testing.T) {
	engine := newEngine(service.NewCriteriaEvaluator(), 4)

	results, err := engine.Match(context.Background(), strongApplicant(), nil)

	require.NoError(t, err)
	assert.Empty(t, results)
}
