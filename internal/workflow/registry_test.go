package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evs-comms/backend/pkg/models"
)

func TestLoadDefaults(t *testing.T) {
	wfs, err := LoadDefaults()
	require.NoError(t, err)
	require.Len(t, wfs, 3)

	assert.Equal(t, "urgent-task-auto-assign", wfs[0].ID)
	assert.Equal(t, "Urgent Task Auto-Assignment", wfs[0].Name)
	assert.Equal(t, "message contains urgency keywords", wfs[0].Trigger)
	assert.Equal(t, models.ConditionContainsKeywords, wfs[0].Conditions[0].Type)
	assert.Equal(t, models.PriorityHigh, wfs[0].Conditions[1].Level)
	assert.Equal(t, models.ActionExtractTask, wfs[0].Actions[0].Type)
	assert.Equal(t, models.PriorityUrgent, wfs[0].Actions[0].Priority)
	assert.Equal(t, 94.0, wfs[0].SuccessRate)
	assert.True(t, wfs[0].Active)

	assert.Equal(t, "coverage-gap-predictor", wfs[1].ID)
	assert.Equal(t, "Coverage Gap Predictor", wfs[1].Name)
	assert.Equal(t, "multiple requests in same area", wfs[1].Trigger)
	assert.Equal(t, 3, wfs[1].Conditions[0].Threshold)
	assert.Equal(t, 30, wfs[1].Conditions[1].Minutes)

	esc := wfs[2]
	assert.Equal(t, "smart-escalation", esc.ID)
	assert.Equal(t, "Smart Escalation Handler", esc.Name)
	assert.Equal(t, "task not completed within SLA", esc.Trigger)
	assert.Equal(t, models.ConditionType("task_overdue"), esc.Conditions[0].Type)
	assert.Equal(t, "2h", esc.Conditions[0].Params["threshold"])
	assert.Empty(t, esc.ExecutionHistory)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]models.Workflow{{ID: "a"}, {ID: "a"}})
	assert.Error(t, err)

	_, err = NewRegistry([]models.Workflow{{Name: "no id"}})
	assert.Error(t, err)
}

func TestRegistry_GetAndSetActive(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)
	assert.Equal(t, 3, r.ActiveCount())

	require.NoError(t, r.SetActive("smart-escalation", false))
	wf, err := r.Get("smart-escalation")
	require.NoError(t, err)
	assert.False(t, wf.Active)
	assert.Equal(t, 2, r.ActiveCount())

	err = r.SetActive("missing", true)
	assert.True(t, errors.Is(err, ErrWorkflowNotFound))
	_, err = r.Get("missing")
	assert.True(t, errors.Is(err, ErrWorkflowNotFound))
}

func TestRegistry_ListReturnsCopies(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	list := r.List()
	list[0].Active = false
	list[0].ExecutionHistory = append(list[0].ExecutionHistory, models.ExecutionRecord{Success: true})

	wf, err := r.Get(list[0].ID)
	require.NoError(t, err)
	assert.True(t, wf.Active)
	assert.Empty(t, wf.ExecutionHistory)
}

func TestRegistry_StatsUseLastTenExecutions(t *testing.T) {
	r, err := NewRegistry([]models.Workflow{{ID: "wf", SuccessRate: 50, Active: true}})
	require.NoError(t, err)

	var wf *models.Workflow
	for i := 0; i < 10; i++ {
		wf, err = r.RecordExecution("wf", models.ExecutionRecord{Success: true, ExecutionTime: 2})
		require.NoError(t, err)
		assert.Equal(t, 100.0, wf.SuccessRate)
	}
	assert.InDelta(t, 2.0, wf.AvgCompletionTime, 1e-9)

	wf, err = r.RecordExecution("wf", models.ExecutionRecord{Success: false, ExecutionTime: 4})
	require.NoError(t, err)
	assert.InDelta(t, 90.0, wf.SuccessRate, 1e-9)
	assert.InDelta(t, 2.2, wf.AvgCompletionTime, 1e-9)
	assert.Len(t, wf.ExecutionHistory, 11)

	_, err = r.RecordExecution("missing", models.ExecutionRecord{})
	assert.True(t, errors.Is(err, ErrWorkflowNotFound))
}

func TestRegistry_StatsWithShortHistory(t *testing.T) {
	r, err := NewRegistry([]models.Workflow{{ID: "wf"}})
	require.NoError(t, err)

	_, err = r.RecordExecution("wf", models.ExecutionRecord{Success: true, ExecutionTime: 1})
	require.NoError(t, err)
	wf, err := r.RecordExecution("wf", models.ExecutionRecord{Success: false, ExecutionTime: 3})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, wf.SuccessRate, 1e-9)
	assert.InDelta(t, 2.0, wf.AvgCompletionTime, 1e-9)
}
