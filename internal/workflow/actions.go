package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"evs-comms/backend/internal/extract"
	"evs-comms/backend/internal/logging"
	"evs-comms/backend/pkg/models"
)

// ActionHandler performs one workflow action for a triggering message.
type ActionHandler interface {
	Handle(ctx context.Context, action models.Action, wf *models.Workflow, msg *models.Message) error
}

// ActionHandlerFunc adapts a function to ActionHandler.
type ActionHandlerFunc func(ctx context.Context, action models.Action, wf *models.Workflow, msg *models.Message) error

// Handle calls f.
func (f ActionHandlerFunc) Handle(ctx context.Context, action models.Action, wf *models.Workflow, msg *models.Message) error {
	return f(ctx, action, wf, msg)
}

// TaskSink persists what workflow actions create.
type TaskSink interface {
	CreateTask(ctx context.Context, task *models.Task) error
	CreateCoverageRequest(ctx context.Context, req *models.CoverageRequest) error
}

// InsightSink receives insights produced by workflow actions.
type InsightSink interface {
	Add(insight models.PredictiveInsight)
}

// Handlers maps action types to their handlers.
type Handlers map[models.ActionType]ActionHandler

// DefaultHandlers wires every known action type. Actions that only notify
// people outside this service are log hooks.
func DefaultHandlers(extractor *extract.Extractor, tasks TaskSink, insights InsightSink, logger *logging.Logger) Handlers {
	logHook := &LogHandler{logger: logger}
	return Handlers{
		models.ActionExtractTask:           &ExtractTaskHandler{extractor: extractor, tasks: tasks, logger: logger},
		models.ActionPredictCoverageGap:    &CoverageGapHandler{insights: insights},
		models.ActionCreateCoverageRequest: &CoverageRequestHandler{tasks: tasks},
		models.ActionFindAvailableStaff:    logHook,
		models.ActionAutoAssign:            logHook,
		models.ActionSendNotification:      logHook,
		models.ActionSuggestRedistribution: logHook,
		models.ActionEscalate:              logHook,
		models.ActionSuggestAlternatives:   logHook,
		models.ActionUpdatePriority:        logHook,
	}
}

// ExtractTaskHandler turns the message into persisted tasks. An explicit
// action priority overrides the message priority.
type ExtractTaskHandler struct {
	extractor *extract.Extractor
	tasks     TaskSink
	logger    *logging.Logger
}

func (h *ExtractTaskHandler) Handle(ctx context.Context, action models.Action, wf *models.Workflow, msg *models.Message) error {
	for _, draft := range h.extractor.Extract(msg) {
		if action.Priority != "" {
			draft.Priority = action.Priority
		}
		task := models.NewTask(draft, msg.Sender)
		if err := h.tasks.CreateTask(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		h.logger.Info("Task created", "task_id", task.TaskID, "workflow_id", wf.ID, "priority", task.Priority)
	}
	return nil
}

// CoverageGapHandler publishes a coverage gap prediction for the message
// location.
type CoverageGapHandler struct {
	insights InsightSink
}

func (h *CoverageGapHandler) Handle(_ context.Context, _ models.Action, wf *models.Workflow, msg *models.Message) error {
	loc := extract.Location(msg.Content)
	h.insights.Add(models.PredictiveInsight{
		ID:          "insight_" + uuid.NewString(),
		Type:        models.InsightCoverageGap,
		Title:       "Potential coverage gap",
		Description: fmt.Sprintf("Based on current request patterns, a coverage gap may occur in %s", loc),
		Confidence:  0.85,
		Impact:      models.ImpactHigh,
		SuggestedActions: []string{
			"Redistribute staff to " + loc,
			"Schedule additional coverage",
		},
		Timeframe: "Next 2 hours",
		BasedOn:   []string{wf.ID, msg.ID},
	})
	return nil
}

// CoverageRequestHandler files a coverage request for the message location.
type CoverageRequestHandler struct {
	tasks TaskSink
}

func (h *CoverageRequestHandler) Handle(ctx context.Context, _ models.Action, wf *models.Workflow, msg *models.Message) error {
	req := &models.CoverageRequest{
		Location:        extract.Location(msg.Content),
		Reason:          fmt.Sprintf("%s: %s", wf.Name, extract.Title(msg.Content)),
		Urgency:         string(msg.Priority),
		Status:          models.CoverageStatusOpen,
		SourceMessageID: msg.ID,
	}
	if err := h.tasks.CreateCoverageRequest(ctx, req); err != nil {
		return fmt.Errorf("failed to create coverage request: %w", err)
	}
	return nil
}

// LogHandler records the action and does nothing else.
type LogHandler struct {
	logger *logging.Logger
}

func (h *LogHandler) Handle(_ context.Context, action models.Action, wf *models.Workflow, msg *models.Message) error {
	h.logger.Info("Workflow action", "action", action.Type, "workflow_id", wf.ID, "message_id", msg.ID)
	return nil
}
