package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"evs-comms/backend/internal/events"
	"evs-comms/backend/internal/extract"
	"evs-comms/backend/internal/insight"
	"evs-comms/backend/internal/logging"
	"evs-comms/backend/internal/repository"
	"evs-comms/backend/internal/workflow"
	"evs-comms/backend/pkg/models"
)

var (
	// ErrEmptyContent is returned when a message has no text.
	ErrEmptyContent = errors.New("message content is required")
	// ErrInvalidMessageType is returned for message types outside the known set.
	ErrInvalidMessageType = errors.New("invalid message type")
)

const (
	DefaultSender          = "user"
	assistantSender        = "AI Assistant"
	systemSender           = "system"
	defaultMessageLimit    = 50
	insightLimit           = 10
	promptRecentMessages   = 5
	contextMemoryPerSender = 10
	defaultReplyTimeout    = 10 * time.Second
)

// Options tunes the communication service. Zero values select defaults.
type Options struct {
	MessageCapacity int
	InsightCapacity int
	ReplyTimeout    time.Duration
	// Workflows replaces the built-in workflow set when non-nil.
	Workflows []models.Workflow
}

// ContextEntry summarizes one message in a sender's daily context memory.
type ContextEntry struct {
	MessageID string          `json:"message_id"`
	Content   string          `json:"content"`
	Priority  models.Priority `json:"priority"`
	Timestamp time.Time       `json:"timestamp"`
}

// CommunicationService ingests messages, runs extraction and workflows, and
// serves the resulting state.
type CommunicationService struct {
	store     *repository.MessageStore
	registry  *workflow.Registry
	evaluator *workflow.Evaluator
	executor  *workflow.Executor
	extractor *extract.Extractor
	analyzer  *insight.Analyzer
	insights  *insight.Buffer
	tasks     repository.TaskStore
	completer TextCompleter
	publisher workflow.Publisher
	logger    *logging.Logger

	replyTimeout time.Duration
	now          func() time.Time

	ctxMu         sync.Mutex
	contextMemory map[string][]ContextEntry

	processed metric.Int64Counter
}

// NewCommunicationService wires the message pipeline. publisher may be nil.
func NewCommunicationService(tasks repository.TaskStore, completer TextCompleter, publisher workflow.Publisher, logger *logging.Logger, opts Options) (*CommunicationService, error) {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = defaultReplyTimeout
	}

	wfs := opts.Workflows
	if wfs == nil {
		var err error
		if wfs, err = workflow.LoadDefaults(); err != nil {
			return nil, err
		}
	}
	registry, err := workflow.NewRegistry(wfs)
	if err != nil {
		return nil, err
	}

	s := &CommunicationService{
		store:         repository.NewMessageStore(opts.MessageCapacity, extract.Location),
		registry:      registry,
		extractor:     extract.NewExtractor(),
		analyzer:      insight.NewAnalyzer(),
		insights:      insight.NewBuffer(opts.InsightCapacity),
		tasks:         tasks,
		completer:     completer,
		publisher:     publisher,
		logger:        logger,
		replyTimeout:  opts.ReplyTimeout,
		now:           time.Now,
		contextMemory: make(map[string][]ContextEntry),
	}
	s.evaluator = workflow.NewEvaluator(s.store)

	handlers := workflow.DefaultHandlers(s.extractor, tasks, insightPublisher{s}, logger.With("component", "workflow"))
	if s.executor, err = workflow.NewExecutor(registry, handlers, publisher, logger.With("component", "workflow")); err != nil {
		return nil, err
	}

	meter := otel.Meter("evs-comms/backend/internal/services")
	if s.processed, err = meter.Int64Counter("evs.messages.processed",
		metric.WithDescription("Messages ingested by priority")); err != nil {
		return nil, fmt.Errorf("failed to create message counter: %w", err)
	}
	return s, nil
}

// ProcessMessage ingests a message: it is classified and stored, answered by
// the completer, scanned for tasks and suggestions, and run through the
// workflows it triggers. Workflow failures are recorded on the workflow and
// never returned here.
func (s *CommunicationService) ProcessMessage(ctx context.Context, in models.MessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeUser
	}
	if !msgType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMessageType, msgType)
	}
	sender := in.Sender
	if sender == "" {
		sender = DefaultSender
	}

	msg := models.Message{
		ID:        "msg_" + uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: s.now(),
		Type:      msgType,
		Priority:  extract.ClassifyPriority(content),
		Status:    models.MessageStatusSent,
		Context:   in.Context,
	}
	s.store.Append(msg)

	s.reply(ctx, &msg)

	msg.ExtractedTasks = s.extractor.Extract(&msg)
	msg.Suggestions = extract.Suggestions(msg.Content)
	msg.WorkflowTriggers = s.evaluator.Evaluate(&msg, s.registry.List())

	for _, id := range msg.WorkflowTriggers {
		if _, err := s.executor.Execute(ctx, id, &msg); err != nil {
			s.logger.Error("Failed to execute workflow", "workflow_id", id, "error", err)
		}
	}

	s.store.Update(msg)
	s.remember(msg)

	s.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("priority", string(msg.Priority))))
	s.logger.Debug("Message processed", "message_id", msg.ID, "priority", msg.Priority, "triggers", len(msg.WorkflowTriggers))

	s.publisher.Publish(events.MessageProcessed, msg)
	s.publisher.Publish(events.MessageReceived, msg)
	return &msg, nil
}

// reply asks the completer for an answer and stores it as an ai message. A
// failing completer leaves msg untouched.
func (s *CommunicationService) reply(ctx context.Context, msg *models.Message) {
	promptContext := s.promptContext(msg)
	prompt := buildPrompt(msg, promptContext)

	ctx, cancel := context.WithTimeout(ctx, s.replyTimeout)
	defer cancel()

	completion, err := s.completer.Complete(ctx, prompt, promptContext)
	if err != nil {
		s.logger.Warn("Failed to generate reply", "message_id", msg.ID, "error", err)
		return
	}

	aiMsg := models.Message{
		ID:          "ai_" + uuid.NewString(),
		Content:     completion.Response,
		Sender:      assistantSender,
		Timestamp:   s.now(),
		Type:        models.MessageTypeAI,
		Priority:    msg.Priority,
		Status:      models.MessageStatusSent,
		Context:     map[string]any{"original_message_id": msg.ID},
		Suggestions: completion.Suggestions,
	}
	s.store.Append(aiMsg)
	s.publisher.Publish(events.MessageReceived, aiMsg)
}

func (s *CommunicationService) promptContext(msg *models.Message) map[string]any {
	recent := s.store.Recent(promptRecentMessages)
	summaries := make([]map[string]any, 0, len(recent))
	for _, m := range recent {
		summaries = append(summaries, map[string]any{
			"sender":   m.Sender,
			"content":  m.Content,
			"priority": m.Priority,
		})
	}
	return map[string]any{
		"priority":         msg.Priority,
		"recent_messages":  summaries,
		"current_time":     s.now().UTC().Format(time.RFC3339),
		"active_workflows": s.registry.ActiveCount(),
		"system_load":      min(float64(s.store.Len())/100, 1.0),
		"conversation":     s.Context(msg.Sender, msg.Timestamp),
	}
}

func buildPrompt(msg *models.Message, promptContext map[string]any) string {
	ctxJSON, err := json.Marshal(promptContext)
	if err != nil {
		ctxJSON = []byte("{}")
	}
	return fmt.Sprintf(`As an expert EVS operations coordinator, provide an intelligent response to this message:

Message: %q
Context: %s
Priority: %s

Provide:
1. A helpful response
2. Actionable next steps
3. Any relevant warnings or considerations`, msg.Content, ctxJSON, msg.Priority)
}

func contextKey(sender string, day time.Time) string {
	return sender + "_" + day.Format(time.DateOnly)
}

func (s *CommunicationService) remember(msg models.Message) {
	key := contextKey(msg.Sender, msg.Timestamp)

	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()

	entries := append(s.contextMemory[key], ContextEntry{
		MessageID: msg.ID,
		Content:   msg.Content,
		Priority:  msg.Priority,
		Timestamp: msg.Timestamp,
	})
	if len(entries) > contextMemoryPerSender {
		entries = entries[len(entries)-contextMemoryPerSender:]
	}
	s.contextMemory[key] = entries
}

// Context returns the remembered messages of sender on the calendar day of
// day, oldest first.
func (s *CommunicationService) Context(sender string, day time.Time) []ContextEntry {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	return append([]ContextEntry(nil), s.contextMemory[contextKey(sender, day)]...)
}

// Messages returns up to limit stored messages, newest first.
func (s *CommunicationService) Messages(limit int) []models.Message {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	return s.store.Recent(limit)
}

// Insights returns the most recent insights, newest first.
func (s *CommunicationService) Insights() []models.PredictiveInsight {
	return s.insights.Recent(insightLimit)
}

// Workflows returns every workflow with its current stats.
func (s *CommunicationService) Workflows() []*models.Workflow {
	return s.registry.List()
}

// ToggleWorkflow enables or disables a workflow.
func (s *CommunicationService) ToggleWorkflow(id string, active bool) error {
	if err := s.registry.SetActive(id, active); err != nil {
		return err
	}
	s.logger.Info("Workflow toggled", "workflow_id", id, "active", active)
	s.publisher.Publish(events.WorkflowToggled, map[string]any{"workflow_id": id, "active": active})
	return nil
}

// ExecuteWorkflow runs a workflow once for a synthesized system message,
// regardless of its trigger conditions.
func (s *CommunicationService) ExecuteWorkflow(ctx context.Context, id string) (*models.Message, models.ExecutionRecord, error) {
	if _, err := s.registry.Get(id); err != nil {
		return nil, models.ExecutionRecord{}, err
	}

	content := "Manual workflow execution"
	msg := models.Message{
		ID:        "msg_" + uuid.NewString(),
		Content:   content,
		Sender:    systemSender,
		Timestamp: s.now(),
		Type:      models.MessageTypeSystem,
		Priority:  extract.ClassifyPriority(content),
		Status:    models.MessageStatusSent,
		Context:   map[string]any{"manual_execution": true, "workflow_id": id},
	}
	s.store.Append(msg)

	rec, err := s.executor.Execute(ctx, id, &msg)
	if err != nil {
		return nil, rec, err
	}
	return &msg, rec, nil
}

// RunAnalysis scans the message history for patterns and stores the
// resulting insights. It returns the insights added by this run.
func (s *CommunicationService) RunAnalysis(ctx context.Context) []models.PredictiveInsight {
	patterns := s.analyzer.Analyze(s.store.All(), s.now())
	insights := insight.ToInsights(patterns)
	for _, in := range insights {
		if ctx.Err() != nil {
			break
		}
		s.publishInsight(in)
	}
	s.logger.Debug("Pattern analysis complete", "patterns", len(patterns), "insights", len(insights))
	return insights
}

func (s *CommunicationService) publishInsight(in models.PredictiveInsight) {
	s.insights.Add(in)
	s.publisher.Publish(events.InsightGenerated, in)
}

// ScanText extracts task drafts from free text without storing anything.
func (s *CommunicationService) ScanText(content, source string) ([]models.TaskDraft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	return extract.Scan(content, source), nil
}

// Tasks returns persisted tasks, newest first.
func (s *CommunicationService) Tasks(ctx context.Context) ([]*models.Task, error) {
	return s.tasks.ListTasks(ctx)
}

// CoverageRequests returns persisted coverage requests, newest first.
func (s *CommunicationService) CoverageRequests(ctx context.Context) ([]*models.CoverageRequest, error) {
	return s.tasks.ListCoverageRequests(ctx)
}

// Ping checks the task store.
func (s *CommunicationService) Ping(ctx context.Context) error {
	return s.tasks.Ping(ctx)
}

// insightPublisher lets workflow actions add insights that are also
// announced on the event stream.
type insightPublisher struct {
	s *CommunicationService
}

func (p insightPublisher) Add(in models.PredictiveInsight) {
	p.s.publishInsight(in)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}
