package usecase

import (
	"context"
	"sync"
)

// ---------------------------------------------------------------------------
// ActiveRuns – in-flight run registry, one slot per application
// ---------------------------------------------------------------------------

// ActiveRuns tracks which applications have an underwriting run in flight.
// It is the idempotency guard: a second submission for the same application
// joins the existing run instead of starting a duplicate, and cancellation
// reaches the in-flight evaluation through the stored cancel func.
type ActiveRuns struct {
	mu    sync.Mutex
	byApp map[string]activeRun
}

type activeRun struct {
	runID  string
	cancel context.CancelFunc
}

// NewActiveRuns returns an empty registry.
func NewActiveRuns() *ActiveRuns {
	return &ActiveRuns{byApp: make(map[string]activeRun)}
}

// Begin claims the slot for an application. It returns ok=true when the claim
// succeeded; otherwise the returned run ID identifies the run already in
// flight.
func (a *ActiveRuns) Begin(applicationID, runID string, cancel context.CancelFunc) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, found := a.byApp[applicationID]; found {
		return existing.runID, false
	}
	a.byApp[applicationID] = activeRun{runID: runID, cancel: cancel}
	return runID, true
}

// End releases the slot, but only if it is still held by the same run.
func (a *ActiveRuns) End(applicationID, runID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, found := a.byApp[applicationID]; found && existing.runID == runID {
		delete(a.byApp, applicationID)
	}
}

// Cancel aborts the in-flight run for an application, if any, and reports
// which run was cancelled.
func (a *ActiveRuns) Cancel(applicationID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	existing, found := a.byApp[applicationID]
	if !found {
		return "", false
	}
	existing.cancel()
	return existing.runID, true
}
