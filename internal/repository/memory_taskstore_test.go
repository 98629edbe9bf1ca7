package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evs-comms/backend/pkg/models"
)

// exerciseTaskStore runs the behaviour every TaskStore must share.
func exerciseTaskStore(t *testing.T, store TaskStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.Ping(ctx))

	deadline := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	first := models.NewTask(models.TaskDraft{
		Title:             "clean the lobby",
		Description:       "please clean the lobby tomorrow",
		Priority:          models.PriorityLow,
		Location:          "lobby",
		Deadline:          &deadline,
		Category:          models.CategoryCleaning,
		EstimatedDuration: 45,
		SourceMessageID:   "msg_1",
	}, "Jordan")
	require.NoError(t, store.CreateTask(ctx, first))
	assert.NotZero(t, first.ID)
	assert.NotEmpty(t, first.TaskID)
	assert.False(t, first.CreatedAt.IsZero())

	second := models.NewTask(models.TaskDraft{Title: "fix sink", Priority: models.PriorityUrgent, Category: models.CategoryMaintenance}, "")
	require.NoError(t, store.CreateTask(ctx, second))
	assert.NotEqual(t, first.TaskID, second.TaskID)

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second.TaskID, tasks[0].TaskID)
	got := tasks[1]
	assert.Equal(t, "clean the lobby", got.Title)
	assert.Equal(t, models.PriorityLow, got.Priority)
	assert.Equal(t, models.CategoryCleaning, got.Category)
	assert.Equal(t, models.TaskStatusPending, got.Status)
	assert.Equal(t, 45, got.EstimatedMinutes)
	assert.Equal(t, "Jordan", got.Requestor)
	assert.Equal(t, "msg_1", got.SourceMessageID)
	require.NotNil(t, got.Deadline)
	assert.True(t, deadline.Equal(*got.Deadline))
	assert.Nil(t, tasks[0].Deadline)

	req := &models.CoverageRequest{Location: "Room 204", Reason: "leak", Urgency: "urgent", SourceMessageID: "msg_2"}
	require.NoError(t, store.CreateCoverageRequest(ctx, req))
	assert.NotZero(t, req.ID)
	assert.NotEmpty(t, req.RequestID)

	reqs, err := store.ListCoverageRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Room 204", reqs[0].Location)
	assert.Equal(t, models.CoverageStatusOpen, reqs[0].Status)
	assert.Equal(t, "urgent", reqs[0].Urgency)
}

func TestMemoryTaskStore(t *testing.T) {
	exerciseTaskStore(t, NewMemoryTaskStore())
}

func TestMemoryTaskStore_CanceledContext(t *testing.T) {
	store := NewMemoryTaskStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.CreateTask(ctx, &models.Task{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryTaskStore_DropsOldestPastLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTaskStore()
	store.limit = 2

	for _, loc := range []string{"Room 1", "Room 2", "Room 3"} {
		require.NoError(t, store.CreateCoverageRequest(ctx, &models.CoverageRequest{Location: loc}))
		require.NoError(t, store.CreateTask(ctx, &models.Task{Title: "clean " + loc}))
	}

	reqs, err := store.ListCoverageRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "Room 3", reqs[0].Location)
	assert.Equal(t, "Room 2", reqs[1].Location)
	assert.Equal(t, int64(3), reqs[0].ID, "ids keep counting after eviction")

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "clean Room 3", tasks[0].Title)

	assert.Equal(t, DefaultMemoryRecords, NewMemoryTaskStore().limit)
}

func TestSQLiteTaskStore(t *testing.T) {
	store, err := OpenSQLiteTaskStore(t.TempDir() + "/tasks.db")
	require.NoError(t, err)
	defer store.Close()

	exerciseTaskStore(t, store)
}
