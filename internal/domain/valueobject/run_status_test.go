package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendermatch/underwriting-service/internal/domain/valueobject"
)

func TestRunStatus(t *testing.T) {
	t.Run("parses known statuses", func(t *testing.T) {
		for _, s := range []string{"pending", "running", "completed", "failed"} {
			status, err := valueobject.NewRunStatus(s)
			require.NoError(t, err)
			assert.Equal(t, s, status.String())
		}
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := valueobject.NewRunStatus("paused")
		assert.Error(t, err)
	})

	t.Run("terminal statuses", func(t *testing.T) {
		assert.False(t, valueobject.RunStatusPending.IsTerminal())
		assert.False(t, valueobject.RunStatusRunning.IsTerminal())
		assert.True(t, valueobject.RunStatusCompleted.IsTerminal())
		assert.True(t, valueobject.RunStatusFailed.IsTerminal())
	})

	t.Run("zero value", func(t *testing.T) {
		var status valueobject.RunStatus
		assert.True(t, status.IsZero())
		assert.False(t, valueobject.RunStatusPending.IsZero())
	})
}

func TestApplicationStatus(t *testing.T) {
	t.Run("parses known statuses", func(t *testing.T) {
		for _, s := range []string{"draft", "submitted", "underwriting", "completed", "failed"} {
			status, err := valueobject.NewApplicationStatus(s)
			require.NoError(t, err)
			assert.Equal(t, s, status.String())
		}
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		_, err := valueobject.NewApplicationStatus("archived")
		assert.Error(t, err)
	})
}
