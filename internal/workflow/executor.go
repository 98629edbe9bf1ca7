package workflow

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"evs-comms/backend/internal/events"
	"evs-comms/backend/internal/logging"
	"evs-comms/backend/pkg/models"
)

// Publisher emits service events.
type Publisher interface {
	Publish(name string, payload any)
}

// Executor runs workflow actions and records the outcome in the registry.
type Executor struct {
	registry  *Registry
	handlers  Handlers
	publisher Publisher
	logger    *logging.Logger
	now       func() time.Time

	executions metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewExecutor creates an executor. publisher may be nil.
func NewExecutor(registry *Registry, handlers Handlers, publisher Publisher, logger *logging.Logger) (*Executor, error) {
	meter := otel.Meter("evs-comms/backend/internal/workflow")
	executions, err := meter.Int64Counter("evs.workflow.executions",
		metric.WithDescription("Workflow executions by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create execution counter: %w", err)
	}
	duration, err := meter.Float64Histogram("evs.workflow.duration",
		metric.WithDescription("Workflow execution time"),
		metric.WithUnit("min"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return &Executor{
		registry:   registry,
		handlers:   handlers,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
		executions: executions,
		duration:   duration,
	}, nil
}

// ExecutionResult is the payload of a workflow.executed event.
type ExecutionResult struct {
	WorkflowID  string                 `json:"workflow_id"`
	Execution   models.ExecutionRecord `json:"execution"`
	SuccessRate float64                `json:"success_rate"`
}

// Execute runs the workflow's actions in order for msg. Execution stops at
// the first failing action and earlier effects are kept. The outcome is
// appended to the workflow history either way; the only error returned is
// ErrWorkflowNotFound.
func (x *Executor) Execute(ctx context.Context, workflowID string, msg *models.Message) (models.ExecutionRecord, error) {
	wf, err := x.registry.Get(workflowID)
	if err != nil {
		return models.ExecutionRecord{}, err
	}

	start := x.now()
	runErr := x.runActions(ctx, wf, msg)
	rec := models.ExecutionRecord{
		Timestamp:        x.now(),
		Success:          runErr == nil,
		ExecutionTime:    x.now().Sub(start).Minutes(),
		TriggerMessageID: msg.ID,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
		x.logger.Error("Workflow execution failed", "workflow_id", wf.ID, "message_id", msg.ID, "error", runErr)
	} else {
		x.logger.Info("Workflow executed", "workflow_id", wf.ID, "message_id", msg.ID)
	}

	updated, err := x.registry.RecordExecution(wf.ID, rec)
	if err != nil {
		return rec, err
	}

	attrs := metric.WithAttributes(
		attribute.String("workflow.id", wf.ID),
		attribute.Bool("success", rec.Success),
	)
	x.executions.Add(ctx, 1, attrs)
	x.duration.Record(ctx, rec.ExecutionTime, attrs)

	if x.publisher != nil {
		x.publisher.Publish(events.WorkflowExecuted, ExecutionResult{
			WorkflowID:  wf.ID,
			Execution:   rec,
			SuccessRate: updated.SuccessRate,
		})
	}
	return rec, nil
}

func (x *Executor) runActions(ctx context.Context, wf *models.Workflow, msg *models.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()

	for _, action := range wf.Actions {
		h, ok := x.handlers[action.Type]
		if !ok {
			x.logger.Debug("Skipping unknown action", "action", action.Type, "workflow_id", wf.ID)
			continue
		}
		if err := h.Handle(ctx, action, wf, msg); err != nil {
			return fmt.Errorf("%s: %w", action.Type, err)
		}
	}
	return nil
}
