package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"evs-comms/backend/internal/events"
	"evs-comms/backend/internal/logging"
	"evs-comms/backend/internal/repository"
	"evs-comms/backend/internal/workflow"
	"evs-comms/backend/pkg/models"
)

// MockCompleter satisfies TextCompleter
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string, promptContext map[string]any) (*Completion, error) {
	args := m.Called(ctx, prompt, promptContext)
	c, _ := args.Get(0).(*Completion)
	return c, args.Error(1)
}

type eventLog struct {
	mu    sync.Mutex
	names []string
}

func (l *eventLog) Publish(name string, _ any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
}

func (l *eventLog) count(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.names {
		if got == name {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T, completer TextCompleter) (*CommunicationService, *repository.MemoryTaskStore, *eventLog) {
	t.Helper()
	tasks := repository.NewMemoryTaskStore()
	log := &eventLog{}
	svc, err := NewCommunicationService(tasks, completer, log, logging.Nop(), Options{})
	require.NoError(t, err)
	return svc, tasks, log
}

func historyLen(t *testing.T, svc *CommunicationService, id string) int {
	t.Helper()
	for _, wf := range svc.Workflows() {
		if wf.ID == id {
			return len(wf.ExecutionHistory)
		}
	}
	t.Fatalf("workflow %s not found", id)
	return 0
}

func TestProcessMessage_UrgentLeak(t *testing.T) {
	svc, tasks, log := newTestService(t, CannedCompleter{})
	ctx := context.Background()

	msg, err := svc.ProcessMessage(ctx, models.MessageInput{
		Content: "URGENT: leak in Room 204, please fix immediately",
		Sender:  "Dana",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PriorityUrgent, msg.Priority)
	assert.Equal(t, models.MessageTypeUser, msg.Type)
	assert.Equal(t, models.MessageStatusSent, msg.Status)
	assert.Contains(t, msg.ID, "msg_")
	require.Len(t, msg.ExtractedTasks, 1)
	draft := msg.ExtractedTasks[0]
	assert.Equal(t, "Room 204", draft.Location)
	assert.Equal(t, models.CategoryMaintenance, draft.Category)
	require.NotNil(t, draft.Deadline)
	assert.WithinDuration(t, time.Now(), *draft.Deadline, 5*time.Second)
	assert.Contains(t, msg.WorkflowTriggers, "urgent-task-auto-assign")
	assert.LessOrEqual(t, len(msg.Suggestions), 3)

	created, err := tasks.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.PriorityUrgent, created[0].Priority)
	assert.Equal(t, "Dana", created[0].Requestor)
	assert.Equal(t, msg.ID, created[0].SourceMessageID)

	stored := svc.Messages(10)
	require.Len(t, stored, 2)
	var reply *models.Message
	for i := range stored {
		if stored[i].Type == models.MessageTypeAI {
			reply = &stored[i]
		}
	}
	require.NotNil(t, reply)
	assert.Equal(t, msg.ID, reply.Context["original_message_id"])
	assert.Equal(t, models.PriorityUrgent, reply.Priority)

	got, ok := svc.store.Get(msg.ID)
	require.True(t, ok)
	assert.Equal(t, msg.WorkflowTriggers, got.WorkflowTriggers, "stored copy carries processing results")

	assert.Equal(t, 1, log.count(events.MessageProcessed))
	assert.Equal(t, 2, log.count(events.MessageReceived))
	assert.GreaterOrEqual(t, log.count(events.WorkflowExecuted), 1)
	assert.Equal(t, 1, historyLen(t, svc, "urgent-task-auto-assign"))
}

func TestProcessMessage_CompleterFailure(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("sidecar down"))
	svc, tasks, _ := newTestService(t, completer)

	msg, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: "please clean the lobby tomorrow"})
	require.NoError(t, err)
	completer.AssertExpectations(t)

	assert.Equal(t, models.PriorityLow, msg.Priority)
	assert.Equal(t, DefaultSender, msg.Sender)
	require.Len(t, msg.ExtractedTasks, 1)
	assert.Equal(t, models.CategoryCleaning, msg.ExtractedTasks[0].Category)
	require.NotNil(t, msg.ExtractedTasks[0].Deadline)
	assert.Equal(t, 9, msg.ExtractedTasks[0].Deadline.Hour())
	assert.Empty(t, msg.WorkflowTriggers)

	assert.Len(t, svc.Messages(10), 1, "no reply stored")
	created, err := tasks.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestProcessMessage_CompleterTimeout(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	svc, err := NewCommunicationService(repository.NewMemoryTaskStore(), completer, nil, logging.Nop(),
		Options{ReplyTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	msg, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: "hello"})
	require.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, svc.Messages(10), 1)
}

func TestProcessMessage_Validation(t *testing.T) {
	svc, _, _ := newTestService(t, CannedCompleter{})

	_, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: "   "})
	assert.True(t, errors.Is(err, ErrEmptyContent))

	_, err = svc.ProcessMessage(context.Background(), models.MessageInput{Content: "hi", Type: "carrier_pigeon"})
	assert.True(t, errors.Is(err, ErrInvalidMessageType))

	assert.Empty(t, svc.Messages(10))
}

func TestProcessMessage_PromptContext(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "restock paper towels")
	}), mock.MatchedBy(func(pc map[string]any) bool {
		return pc["active_workflows"] == 3 &&
			pc["priority"] == models.PriorityHigh &&
			pc["system_load"] == 0.01
	})).Return(&Completion{Response: "noted"}, nil).Once()

	svc, _, _ := newTestService(t, completer)
	_, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: "important: restock paper towels"})
	require.NoError(t, err)
	completer.AssertExpectations(t)
}

func TestProcessMessage_InactiveWorkflowDoesNotRun(t *testing.T) {
	svc, tasks, _ := newTestService(t, CannedCompleter{})
	require.NoError(t, svc.ToggleWorkflow("urgent-task-auto-assign", false))

	msg, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: "emergency: repair the elevator"})
	require.NoError(t, err)
	assert.NotContains(t, msg.WorkflowTriggers, "urgent-task-auto-assign")
	assert.Equal(t, 0, historyLen(t, svc, "urgent-task-auto-assign"))

	created, err := tasks.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestProcessMessage_ClusteringFiresOnThirdMessage(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("offline"))

	wfs := []models.Workflow{{
		ID:         "cluster",
		Name:       "Cluster",
		Conditions: []models.Condition{{Type: models.ConditionLocationClustering, Threshold: 3}},
		Actions:    []models.Action{{Type: models.ActionCreateCoverageRequest}},
		Active:     true,
	}}
	tasks := repository.NewMemoryTaskStore()
	svc, err := NewCommunicationService(tasks, completer, nil, logging.Nop(), Options{Workflows: wfs})
	require.NoError(t, err)

	for i := 1; i <= 2; i++ {
		msg, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: fmt.Sprintf("Trash pickup needed in Room 204 (%d)", i)})
		require.NoError(t, err)
		assert.Empty(t, msg.WorkflowTriggers)
	}
	msg, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: "Trash pickup needed in Room 204 (3)"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cluster"}, msg.WorkflowTriggers)

	reqs, err := svc.CoverageRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Room 204", reqs[0].Location)
}

func TestExecuteWorkflow(t *testing.T) {
	svc, _, log := newTestService(t, CannedCompleter{})

	msg, rec, err := svc.ExecuteWorkflow(context.Background(), "smart-escalation")
	require.NoError(t, err)
	assert.True(t, rec.Success)
	assert.Equal(t, msg.ID, rec.TriggerMessageID)
	assert.Equal(t, models.MessageTypeSystem, msg.Type)
	assert.Equal(t, true, msg.Context["manual_execution"])
	assert.Equal(t, 1, historyLen(t, svc, "smart-escalation"))
	assert.Equal(t, 0, historyLen(t, svc, "urgent-task-auto-assign"))
	assert.Equal(t, 1, log.count(events.WorkflowExecuted))

	_, _, err = svc.ExecuteWorkflow(context.Background(), "nope")
	assert.True(t, errors.Is(err, workflow.ErrWorkflowNotFound))
	assert.Len(t, svc.Messages(10), 1, "unknown workflow stores nothing")
}

func TestToggleWorkflow_Unknown(t *testing.T) {
	svc, _, log := newTestService(t, CannedCompleter{})
	err := svc.ToggleWorkflow("nope", true)
	assert.True(t, errors.Is(err, workflow.ErrWorkflowNotFound))
	assert.Equal(t, 0, log.count(events.WorkflowToggled))
}

func TestContextMemoryKeepsLastTen(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("offline"))
	svc, _, _ := newTestService(t, completer)

	for i := 0; i < 12; i++ {
		_, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: fmt.Sprintf("note %d", i), Sender: "sam"})
		require.NoError(t, err)
	}
	entries := svc.Context("sam", time.Now())
	require.Len(t, entries, 10)
	assert.Equal(t, "note 2", entries[0].Content)
	assert.Equal(t, "note 11", entries[9].Content)
	assert.Empty(t, svc.Context("someone else", time.Now()))
}

func TestRunAnalysis_PrioritySpike(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("offline"))
	svc, _, log := newTestService(t, completer)

	for i := 0; i < 3; i++ {
		_, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: fmt.Sprintf("critical outage %d", i)})
		require.NoError(t, err)
	}

	added := svc.RunAnalysis(context.Background())
	var spike *models.PredictiveInsight
	for i := range added {
		if added[i].Type == models.InsightTaskNeeded {
			spike = &added[i]
		}
	}
	require.NotNil(t, spike)
	assert.Equal(t, 0.9, spike.Confidence)

	assert.LessOrEqual(t, len(svc.Insights()), 10)
	assert.GreaterOrEqual(t, log.count(events.InsightGenerated), 1)
}

func TestMessagesLimit(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("offline"))
	svc, _, _ := newTestService(t, completer)

	for i := 0; i < 60; i++ {
		_, err := svc.ProcessMessage(context.Background(), models.MessageInput{Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}
	assert.Len(t, svc.Messages(0), 50)
	assert.Len(t, svc.Messages(5), 5)
}

func TestScanText(t *testing.T) {
	svc, _, _ := newTestService(t, CannedCompleter{})

	drafts, err := svc.ScanText("Please repair the door in Building A. Urgent", "email")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "building a", drafts[0].Location)
	assert.Equal(t, models.PriorityHigh, drafts[0].Priority)
	assert.Equal(t, "email", drafts[0].Source)

	_, err = svc.ScanText("", "email")
	assert.True(t, errors.Is(err, ErrEmptyContent))
}
