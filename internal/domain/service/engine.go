package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Match engine – fans one application out over the whole lender catalog
// ---------------------------------------------------------------------------

// DefaultWorkerCap bounds the evaluation fan-out.
const DefaultWorkerCap = 8

// MatchEngine evaluates one application against every policy in the catalog.
// Evaluations are independent and run on a bounded worker pool; the result
// slice always matches the catalog in length and order regardless of which
// worker finished first.
type MatchEngine struct {
	lenders   *LenderEvaluator
	logger    *slog.Logger
	workerCap int
}

// NewMatchEngine creates an engine. A non-positive workerCap falls back to
// DefaultWorkerCap.
func NewMatchEngine(lenders *LenderEvaluator, logger *slog.Logger, workerCap int) *MatchEngine {
	if workerCap <= 0 {
		workerCap = DefaultWorkerCap
	}
	return &MatchEngine{
		lenders:   lenders,
		logger:    logger,
		workerCap: workerCap,
	}
}

// Match returns one LenderMatchResult per catalog entry, in catalog order.
// A panic inside a single lender's evaluation is contained to that lender's
// result; it never takes down the run. Cancellation via ctx aborts the run
// and discards partial results.
func (e *MatchEngine) Match(
	ctx context.Context,
	app model.LoanApplication,
	catalog []model.LenderPolicy,
) ([]model.LenderMatchResult, error) {
	if len(catalog) == 0 {
		return []model.LenderMatchResult{}, nil
	}

	workers := min(len(catalog), e.workerCap)
	results := make([]model.LenderMatchResult, len(catalog))
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.evaluateOne(catalog[i], app)
			}
		}()
	}

feed:
	for i := range catalog {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluateOne wraps a single lender evaluation with panic isolation.
func (e *MatchEngine) evaluateOne(policy model.LenderPolicy, app model.LoanApplication) (result model.LenderMatchResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("lender evaluation panicked",
				"lender_id", policy.ID,
				"lender_name", policy.Name,
				"panic", r,
			)
			result = model.LenderMatchResult{
				LenderID:         policy.ID,
				LenderName:       policy.Name,
				Eligible:         false,
				FitScore:         0,
				RejectionReasons: []string{"Evaluation error"},
				CriteriaResults:  []model.CriterionResult{},
			}
		}
	}()
	return e.lenders.Evaluate(policy, app)
}
