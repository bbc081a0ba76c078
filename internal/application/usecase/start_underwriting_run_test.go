package usecase_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendermatch/underwriting-service/internal/application/dto"
	"github.com/lendermatch/underwriting-service/internal/application/usecase"
	"github.com/lendermatch/underwriting-service/internal/domain/event"
	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/port"
	"github.com/lendermatch/underwriting-service/internal/domain/service"
	"github.com/lendermatch/underwriting-service/internal/domain/valueobject"
)

// --- Mock implementations ---

type mockApplicationRepo struct {
	mu           sync.Mutex
	findByIDFunc func(ctx context.Context, id string) (model.LoanApplication, error)
	savedApps    []model.LoanApplication
}

func (m *mockApplicationRepo) Save(_ context.Context, app model.LoanApplication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedApps = append(m.savedApps, app)
	return nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (model.LoanApplication, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return model.LoanApplication{}, port.ErrNotFound
}

func (m *mockApplicationRepo) List(_ context.Context, _, _ int) ([]model.LoanApplication, error) {
	return nil, nil
}

type mockPolicyRepo struct {
	listAllFunc func(ctx context.Context) ([]model.LenderPolicy, error)
}

func (m *mockPolicyRepo) Save(_ context.Context, _ model.LenderPolicy) error { return nil }
func (m *mockPolicyRepo) FindByID(_ context.Context, _ string) (model.LenderPolicy, error) {
	return model.LenderPolicy{}, port.ErrNotFound
}
func (m *mockPolicyRepo) FindBySlug(_ context.Context, _ string) (model.LenderPolicy, error) {
	return model.LenderPolicy{}, port.ErrNotFound
}
func (m *mockPolicyRepo) Delete(_ context.Context, _ string) error { return nil }
func (m *mockPolicyRepo) ListAll(ctx context.Context) ([]model.LenderPolicy, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

type mockRunRepo struct {
	mu        sync.Mutex
	savedRuns []model.UnderwritingRun
}

func (m *mockRunRepo) Save(_ context.Context, run model.UnderwritingRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedRuns = append(m.savedRuns, run)
	return nil
}

func (m *mockRunRepo) FindByID(_ context.Context, _ string) (model.UnderwritingRun, error) {
	return model.UnderwritingRun{}, port.ErrNotFound
}

func (m *mockRunRepo) FindLatestByApplicationID(_ context.Context, _ string) (model.UnderwritingRun, error) {
	return model.UnderwritingRun{}, port.ErrNotFound
}

func (m *mockRunRepo) last() model.UnderwritingRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savedRuns[len(m.savedRuns)-1]
}

type mockEventPublisher struct {
	mu              sync.Mutex
	publishedEvents []event.DomainEvent
}

func (m *mockEventPublisher) Publish(_ context.Context, evts ...event.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.publishedEvents))
	for _, evt := range m.publishedEvents {
		types = append(types, evt.EventType())
	}
	return types
}

// --- Test fixtures ---

func submittedApplication() model.LoanApplication {
	paynet := 65
	return model.LoanApplication{
		ID:     "app-001",
		Status: valueobject.ApplicationStatusSubmitted,
		Business: model.Business{
			Industry:        "Construction",
			State:           "TX",
			YearsInBusiness: 8,
			AnnualRevenue:   decimal.NewFromInt(1_200_000),
		},
		Guarantor:      model.Guarantor{FICOScore: 720},
		BusinessCredit: &model.BusinessCredit{PaynetScore: &paynet},
		LoanRequest: model.LoanRequest{
			Amount:     decimal.NewFromInt(150_000),
			TermMonths: 60,
			Equipment:  model.Equipment{Type: "Excavator"},
		},
	}
}

func testPolicy(id string, minFico int) model.LenderPolicy {
	return model.LenderPolicy{
		ID:   id,
		Name: "Lender " + id,
		Programs: []model.Program{{
			ID:   id + "-p1",
			Name: "Standard",
			Criteria: model.LenderPolicyCriteria{
				Fico: &model.FicoCriteria{MinScore: minFico},
				LoanAmount: model.LoanAmountCriteria{
					MinAmount: decimal.NewFromInt(25_000),
					MaxAmount: decimal.NewFromInt(500_000),
				},
			},
		}},
	}
}

func newMatchEngine() *service.MatchEngine {
	criteria := service.NewCriteriaEvaluator()
	scorer := service.NewFitScorer()
	lenders := service.NewLenderEvaluator(service.NewProgramEvaluator(criteria, scorer))
	return service.NewMatchEngine(lenders, slog.Default(), 4)
}

func newStartUC(
	appRepo *mockApplicationRepo,
	policyRepo *mockPolicyRepo,
	runRepo *mockRunRepo,
	publisher *mockEventPublisher,
	active *usecase.ActiveRuns,
) *usecase.StartUnderwritingRunUseCase {
	return usecase.NewStartUnderwritingRunUseCase(
		appRepo, policyRepo, runRepo, publisher, newMatchEngine(), active, slog.Default(),
	)
}

// --- Tests ---

func TestStartUnderwritingRun_Execute(t *testing.T) {
	t.Run("completes a run against the catalog", func(t *testing.T) {
		appRepo := &mockApplicationRepo{
			findByIDFunc: func(_ context.Context, _ string) (model.LoanApplication, error) {
				return submittedApplication(), nil
			},
		}
		policyRepo := &mockPolicyRepo{
			listAllFunc: func(_ context.Context) ([]model.LenderPolicy, error) {
				return []model.LenderPolicy{
					testPolicy("lender-a", 700),
					testPolicy("lender-b", 780),
				}, nil
			},
		}
		runRepo := &mockRunRepo{}
		publisher := &mockEventPublisher{}

		uc := newStartUC(appRepo, policyRepo, runRepo, publisher, usecase.NewActiveRuns())
		resp, err := uc.Execute(context.Background(), "app-001")

		require.NoError(t, err)
		assert.Equal(t, "completed", resp.Status)
		assert.False(t, resp.AlreadyRunning)

		final := runRepo.last()
		assert.True(t, final.Status().Equal(valueobject.RunStatusCompleted))
		results := final.Results()
		require.Len(t, results, 2)
		assert.True(t, results[0].Eligible)
		assert.False(t, results[1].Eligible)

		assert.Contains(t, publisher.eventTypes(), "underwriting.run.started")
		assert.Contains(t, publisher.eventTypes(), "underwriting.run.completed")

		// Application landed in completed.
		lastApp := appRepo.savedApps[len(appRepo.savedApps)-1]
		assert.True(t, lastApp.Status.Equal(valueobject.ApplicationStatusCompleted))
	})

	t.Run("zero eligible lenders still completes", func(t *testing.T) {
		appRepo := &mockApplicationRepo{
			findByIDFunc: func(_ context.Context, _ string) (model.LoanApplication, error) {
				return submittedApplication(), nil
			},
		}
		policyRepo := &mockPolicyRepo{
			listAllFunc: func(_ context.Context) ([]model.LenderPolicy, error) {
				return []model.LenderPolicy{testPolicy("lender-a", 800)}, nil
			},
		}
		runRepo := &mockRunRepo{}

		uc := newStartUC(appRepo, policyRepo, runRepo, &mockEventPublisher{}, usecase.NewActiveRuns())
		resp, err := uc.Execute(context.Background(), "app-001")

		require.NoError(t, err)
		assert.Equal(t, "completed", resp.Status)
		assert.Empty(t, runRepo.last().Error())
	})

	t.Run("unknown application is an error", func(t *testing.T) {
		uc := newStartUC(&mockApplicationRepo{}, &mockPolicyRepo{}, &mockRunRepo{},
			&mockEventPublisher{}, usecase.NewActiveRuns())

		_, err := uc.Execute(context.Background(), "missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, port.ErrNotFound)
	})

	t.Run("catalog load fault fails the run", func(t *testing.T) {
		appRepo := &mockApplicationRepo{
			findByIDFunc: func(_ context.Context, _ string) (model.LoanApplication, error) {
				return submittedApplication(), nil
			},
		}
		policyRepo := &mockPolicyRepo{
			listAllFunc: func(_ context.Context) ([]model.LenderPolicy, error) {
				return nil, fmt.Errorf("database unavailable")
			},
		}
		runRepo := &mockRunRepo{}
		publisher := &mockEventPublisher{}

		uc := newStartUC(appRepo, policyRepo, runRepo, publisher, usecase.NewActiveRuns())
		resp, err := uc.Execute(context.Background(), "app-001")

		require.NoError(t, err)
		assert.Equal(t, "failed", resp.Status)

		final := runRepo.last()
		assert.True(t, final.Status().Equal(valueobject.RunStatusFailed))
		assert.Contains(t, final.Error(), "load lender catalog")
		assert.Contains(t, publisher.eventTypes(), "underwriting.run.failed")
	})

	t.Run("duplicate submission joins the in-flight run", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})

		appRepo := &mockApplicationRepo{
			findByIDFunc: func(_ context.Context, _ string) (model.LoanApplication, error) {
				return submittedApplication(), nil
			},
		}
		policyRepo := &mockPolicyRepo{
			listAllFunc: func(_ context.Context) ([]model.LenderPolicy, error) {
				close(started)
				<-release
				return []model.LenderPolicy{testPolicy("lender-a", 700)}, nil
			},
		}
		active := usecase.NewActiveRuns()
		uc := newStartUC(appRepo, policyRepo, &mockRunRepo{}, &mockEventPublisher{}, active)

		var (
			firstResp dto.StartRunResponse
			wg        sync.WaitGroup
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := uc.Execute(context.Background(), "app-001")
			assert.NoError(t, err)
			firstResp = resp
		}()

		<-started
		second, err := uc.Execute(context.Background(), "app-001")
		require.NoError(t, err)
		assert.True(t, second.AlreadyRunning)

		close(release)
		wg.Wait()

		assert.Equal(t, firstResp.RunID, second.RunID)
		assert.Equal(t, "completed", firstResp.Status)
	})

	t.Run("cancellation fails the run with cancelled", func(t *testing.T) {
		appRepo := &mockApplicationRepo{
			findByIDFunc: func(_ context.Context, _ string) (model.LoanApplication, error) {
				return submittedApplication(), nil
			},
		}
		// The catalog load parks until the run context is cancelled, standing
		// in for a long evaluation.
		policyRepo := &mockPolicyRepo{
			listAllFunc: func(ctx context.Context) ([]model.LenderPolicy, error) {
				<-ctx.Done()
				return []model.LenderPolicy{testPolicy("lender-a", 700)}, nil
			},
		}
		runRepo := &mockRunRepo{}
		active := usecase.NewActiveRuns()
		startUC := newStartUC(appRepo, policyRepo, runRepo, &mockEventPublisher{}, active)
		cancelUC := usecase.NewCancelUnderwritingRunUseCase(active, slog.Default())

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := startUC.Execute(context.Background(), "app-001")
			assert.NoError(t, err)
			assert.Equal(t, "failed", resp.Status)
		}()

		// Wait until the run claims its slot, then cancel it.
		require.Eventually(t, func() bool {
			_, err := cancelUC.Execute(context.Background(), "app-001")
			return err == nil
		}, 2*time.Second, 10*time.Millisecond)
		wg.Wait()

		final := runRepo.last()
		assert.True(t, final.Status().Equal(valueobject.RunStatusFailed))
		assert.Equal(t, "cancelled", final.Error())
	})

	t.Run("cancel without an active run is rejected", func(t *testing.T) {
		cancelUC := usecase.NewCancelUnderwritingRunUseCase(usecase.NewActiveRuns(), slog.Default())
		_, err := cancelUC.Execute(context.Background(), "app-001")
		assert.ErrorIs(t, err, usecase.ErrNoActiveRun)
	})
}
