package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendermatch/underwriting-service/internal/domain/model"
	"github.com/lendermatch/underwriting-service/internal/domain/valueobject"
)

func newPendingRun(t *testing.T) model.UnderwritingRun {
	t.Helper()
	run, err := model.NewUnderwritingRun("app-001", time.Now().UTC())
	require.NoError(t, err)
	return run
}

func sampleResults() []model.LenderMatchResult {
	return []model.LenderMatchResult{
		{LenderID: "lender-a", LenderName: "Apex Capital", Eligible: true, FitScore: 88},
		{LenderID: "lender-b", LenderName: "Summit Funding", Eligible: false, FitScore: 42,
			RejectionReasons: []string{"FICO 620 below minimum 700"}},
	}
}

func TestUnderwritingRun_Lifecycle(t *testing.T) {
	t.Run("requires an application ID", func(t *testing.T) {
		_, err := model.NewUnderwritingRun("", time.Now().UTC())
		require.Error(t, err)
	})

	t.Run("pending to running to completed", func(t *testing.T) {
		now := time.Now().UTC()
		run := newPendingRun(t)
		assert.True(t, run.Status().Equal(valueobject.RunStatusPending))

		run, err := run.Start(5, now)
		require.NoError(t, err)
		assert.True(t, run.Status().Equal(valueobject.RunStatusRunning))

		run, err = run.Complete(sampleResults(), now)
		require.NoError(t, err)
		assert.True(t, run.Status().Equal(valueobject.RunStatusCompleted))
		assert.True(t, run.Status().IsTerminal())
		require.NotNil(t, run.CompletedAt())
		assert.Len(t, run.Results(), 2)
	})

	t.Run("zero eligible lenders is a valid completed outcome", func(t *testing.T) {
		now := time.Now().UTC()
		run := newPendingRun(t)
		run, err := run.Start(0, now)
		require.NoError(t, err)

		run, err = run.Complete(nil, now)
		require.NoError(t, err)
		assert.True(t, run.Status().Equal(valueobject.RunStatusCompleted))
		assert.Empty(t, run.Error())
	})

	t.Run("fail discards results and records the error", func(t *testing.T) {
		now := time.Now().UTC()
		run := newPendingRun(t)
		run, err := run.Start(5, now)
		require.NoError(t, err)

		run, err = run.Fail("cancelled", now)
		require.NoError(t, err)
		assert.True(t, run.Status().Equal(valueobject.RunStatusFailed))
		assert.Equal(t, "cancelled", run.Error())
		assert.Empty(t, run.Results())
	})
}

func TestUnderwritingRun_TransitionsAreGuarded(t *testing.T) {
	now := time.Now().UTC()

	t.Run("cannot complete a pending run", func(t *testing.T) {
		run := newPendingRun(t)
		_, err := run.Complete(sampleResults(), now)
		assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	})

	t.Run("cannot fail a pending run", func(t *testing.T) {
		run := newPendingRun(t)
		_, err := run.Fail("boom", now)
		assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	})

	t.Run("terminal runs never change again", func(t *testing.T) {
		run := newPendingRun(t)
		run, err := run.Start(1, now)
		require.NoError(t, err)
		run, err = run.Complete(sampleResults(), now)
		require.NoError(t, err)

		_, err = run.Start(1, now)
		assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
		_, err = run.Fail("too late", now)
		assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	})

	t.Run("cancellation cannot race a completed run back to failed", func(t *testing.T) {
		run := newPendingRun(t)
		run, err := run.Start(1, now)
		require.NoError(t, err)

		completed, err := run.Complete(sampleResults(), now)
		require.NoError(t, err)

		// A stale cancel against the completed copy is rejected.
		_, err = completed.Fail("cancelled", now)
		assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	})
}

func TestUnderwritingRun_Events(t *testing.T) {
	now := time.Now().UTC()
	run := newPendingRun(t)

	run, err := run.Start(2, now)
	require.NoError(t, err)
	run, err = run.Complete(sampleResults(), now)
	require.NoError(t, err)

	events := run.DomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "underwriting.run.started", events[0].EventType())
	assert.Equal(t, "underwriting.run.completed", events[1].EventType())
	assert.Equal(t, run.ID(), events[0].AggregateID())

	cleared := run.ClearEvents()
	assert.Empty(t, cleared.DomainEvents())
	assert.Len(t, run.DomainEvents(), 2, "clearing returns a copy")
}
