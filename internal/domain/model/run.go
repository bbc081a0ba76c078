package model

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lendermatch/underwriting-service/internal/domain/event"
	"github.com/lendermatch/underwriting-service/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// UnderwritingRun aggregate root
// ---------------------------------------------------------------------------

// UnderwritingRun is an immutable aggregate. Every transition returns a new
// copy; the status checks make each transition a compare-and-set, so a
// cancellation can never race a completing evaluation into an inconsistent
// state. Terminal runs (completed, failed) never change again.
type UnderwritingRun struct {
	id            string
	applicationID string
	status        valueobject.RunStatus
	startedAt     time.Time
	completedAt   *time.Time
	results       []LenderMatchResult
	errMsg        string
	domainEvents  []event.DomainEvent
}

// NewUnderwritingRun creates a pending run for one application.
func NewUnderwritingRun(applicationID string, now time.Time) (UnderwritingRun, error) {
	if applicationID == "" {
		return UnderwritingRun{}, errors.New("application ID is required")
	}
	return UnderwritingRun{
		id:            uuid.New().String(),
		applicationID: applicationID,
		status:        valueobject.RunStatusPending,
		startedAt:     now,
	}, nil
}

// ReconstructUnderwritingRun rebuilds a run from persistence without side-effects.
func ReconstructUnderwritingRun(
	id, applicationID string,
	status valueobject.RunStatus,
	startedAt time.Time,
	completedAt *time.Time,
	results []LenderMatchResult,
	errMsg string,
) UnderwritingRun {
	return UnderwritingRun{
		id:            id,
		applicationID: applicationID,
		status:        status,
		startedAt:     startedAt,
		completedAt:   completedAt,
		results:       results,
		errMsg:        errMsg,
	}
}

// ---------------------------------------------------------------------------
// State transitions (each returns a new copy)
// ---------------------------------------------------------------------------

// Start transitions pending -> running and emits UnderwritingRunStarted.
func (r UnderwritingRun) Start(lenderCount int, now time.Time) (UnderwritingRun, error) {
	if !r.status.Equal(valueobject.RunStatusPending) {
		return r, valueobject.ErrInvalidStatusTransition
	}
	next := r
	next.status = valueobject.RunStatusRunning
	next.startedAt = now
	next.domainEvents = copyEvents(r.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewUnderwritingRunStarted(
		r.id, r.applicationID, lenderCount,
	))
	return next, nil
}

// Complete transitions running -> completed with the full result set and emits
// UnderwritingRunCompleted. Zero eligible lenders is a valid completed outcome.
func (r UnderwritingRun) Complete(results []LenderMatchResult, now time.Time) (UnderwritingRun, error) {
	if !r.status.Equal(valueobject.RunStatusRunning) {
		return r, valueobject.ErrInvalidStatusTransition
	}
	next := r
	next.status = valueobject.RunStatusCompleted
	next.completedAt = &now
	next.results = copyResults(results)

	eligible := 0
	topFit := 0
	topLender := ""
	for _, res := range results {
		if res.Eligible {
			eligible++
		}
		if res.FitScore > topFit {
			topFit = res.FitScore
			topLender = res.LenderID
		}
	}

	next.domainEvents = copyEvents(r.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewUnderwritingRunCompleted(
		r.id, r.applicationID, len(results), eligible, topFit, topLender,
	))
	return next, nil
}

// Fail transitions running -> failed and emits UnderwritingRunFailed.
// Partial results from in-flight lender evaluations are discarded, not merged.
func (r UnderwritingRun) Fail(errMsg string, now time.Time) (UnderwritingRun, error) {
	if !r.status.Equal(valueobject.RunStatusRunning) {
		return r, valueobject.ErrInvalidStatusTransition
	}
	next := r
	next.status = valueobject.RunStatusFailed
	next.completedAt = &now
	next.errMsg = errMsg
	next.results = nil
	next.domainEvents = copyEvents(r.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewUnderwritingRunFailed(
		r.id, r.applicationID, errMsg,
	))
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (r UnderwritingRun) ID() string                    { return r.id }
func (r UnderwritingRun) ApplicationID() string         { return r.applicationID }
func (r UnderwritingRun) Status() valueobject.RunStatus { return r.status }
func (r UnderwritingRun) StartedAt() time.Time          { return r.startedAt }
func (r UnderwritingRun) CompletedAt() *time.Time       { return r.completedAt }
func (r UnderwritingRun) Error() string                 { return r.errMsg }

// Results returns a defensive copy of the result set.
func (r UnderwritingRun) Results() []LenderMatchResult { return copyResults(r.results) }

// DomainEvents returns the events collected by state transitions.
func (r UnderwritingRun) DomainEvents() []event.DomainEvent { return r.domainEvents }

// ClearEvents returns a copy with an empty event list (call after publishing).
func (r UnderwritingRun) ClearEvents() UnderwritingRun {
	next := r
	next.domainEvents = nil
	return next
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if len(src) == 0 {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}

func copyResults(src []LenderMatchResult) []LenderMatchResult {
	if len(src) == 0 {
		return nil
	}
	dst := make([]LenderMatchResult, len(src))
	copy(dst, src)
	return dst
}
