package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// RunStatus – immutable value object
// ---------------------------------------------------------------------------

// RunStatus represents the lifecycle stage of an underwriting run.
type RunStatus struct {
	value string
}

const (
	runStatusPending   = "pending"
	runStatusRunning   = "running"
	runStatusCompleted = "completed"
	runStatusFailed    = "failed"
)

var (
	RunStatusPending   = RunStatus{value: runStatusPending}
	RunStatusRunning   = RunStatus{value: runStatusRunning}
	RunStatusCompleted = RunStatus{value: runStatusCompleted}
	RunStatusFailed    = RunStatus{value: runStatusFailed}
)

var validRunStatuses = map[string]RunStatus{
	runStatusPending:   RunStatusPending,
	runStatusRunning:   RunStatusRunning,
	runStatusCompleted: RunStatusCompleted,
	runStatusFailed:    RunStatusFailed,
}

// NewRunStatus creates a RunStatus from a raw string.
func NewRunStatus(s string) (RunStatus, error) {
	v, ok := validRunStatuses[s]
	if !ok {
		return RunStatus{}, fmt.Errorf("invalid run status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s RunStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s RunStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s RunStatus) Equal(other RunStatus) bool { return s.value == other.value }

// IsTerminal returns true for completed and failed runs.
func (s RunStatus) IsTerminal() bool {
	return s.value == runStatusCompleted || s.value == runStatusFailed
}

// ---------------------------------------------------------------------------
// ApplicationStatus – immutable value object
// ---------------------------------------------------------------------------

// ApplicationStatus represents the lifecycle stage of a loan application.
type ApplicationStatus struct {
	value string
}

const (
	appStatusDraft        = "draft"
	appStatusSubmitted    = "submitted"
	appStatusUnderwriting = "underwriting"
	appStatusCompleted    = "completed"
	appStatusFailed       = "failed"
)

var (
	ApplicationStatusDraft        = ApplicationStatus{value: appStatusDraft}
	ApplicationStatusSubmitted    = ApplicationStatus{value: appStatusSubmitted}
	ApplicationStatusUnderwriting = ApplicationStatus{value: appStatusUnderwriting}
	ApplicationStatusCompleted    = ApplicationStatus{value: appStatusCompleted}
	ApplicationStatusFailed       = ApplicationStatus{value: appStatusFailed}
)

var validApplicationStatuses = map[string]ApplicationStatus{
	appStatusDraft:        ApplicationStatusDraft,
	appStatusSubmitted:    ApplicationStatusSubmitted,
	appStatusUnderwriting: ApplicationStatusUnderwriting,
	appStatusCompleted:    ApplicationStatusCompleted,
	appStatusFailed:       ApplicationStatusFailed,
}

// NewApplicationStatus creates an ApplicationStatus from a raw string.
func NewApplicationStatus(s string) (ApplicationStatus, error) {
	v, ok := validApplicationStatuses[s]
	if !ok {
		return ApplicationStatus{}, fmt.Errorf("invalid application status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s ApplicationStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s ApplicationStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s ApplicationStatus) Equal(other ApplicationStatus) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
