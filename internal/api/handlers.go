// Package api contains the HTTP handlers for the communication service
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"evs-comms/backend/internal/events"
	"evs-comms/backend/internal/logging"
	"evs-comms/backend/pkg/models"
)

// CommunicationService is the service surface the handlers need.
type CommunicationService interface {
	ProcessMessage(ctx context.Context, in models.MessageInput) (*models.Message, error)
	Messages(limit int) []models.Message
	Insights() []models.PredictiveInsight
	Workflows() []*models.Workflow
	ToggleWorkflow(id string, active bool) error
	ExecuteWorkflow(ctx context.Context, id string) (*models.Message, models.ExecutionRecord, error)
	RunAnalysis(ctx context.Context) []models.PredictiveInsight
	ScanText(content, source string) ([]models.TaskDraft, error)
	Tasks(ctx context.Context) ([]*models.Task, error)
	CoverageRequests(ctx context.Context) ([]*models.CoverageRequest, error)
	Ping(ctx context.Context) error
}

// EventSource hands out event subscriptions for the stream endpoint.
type EventSource interface {
	Subscribe() (<-chan events.Event, func())
}

// Handler contains HTTP handlers for the communication REST API
type Handler struct {
	svc    CommunicationService
	events EventSource
	logger *logging.Logger
}

// NewHandler creates a new Handler with required dependencies
func NewHandler(svc CommunicationService, source EventSource, logger *logging.Logger) *Handler {
	return &Handler{svc: svc, events: source, logger: logger}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	TaskStore string    `json:"task_store"`
}

// HandleHealth returns basic health status. It answers 200 even when the
// task store is unreachable and reports the store state in the body.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "evs-comms",
		Version:   "1.0.0",
		TaskStore: "ok",
	}
	if err := h.svc.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		status.TaskStore = err.Error()
	}
	return c.JSON(http.StatusOK, status)
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// ProblemErrorHandler renders every handler error as an RFC 7807 Problem
// Details document. Errors that are not *echo.HTTPError are logged and
// reported as 500 without their text.
func ProblemErrorHandler(logger *logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		detail := "internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			detail = fmt.Sprint(he.Message)
			if he.Internal != nil {
				logger.Debug("request failed", "path", c.Path(), "error", he.Internal)
			}
		} else {
			logger.Error("unhandled request error", "path", c.Path(), "error", err)
		}

		problem := ProblemDetails{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   detail,
			Instance: c.Request().URL.Path,
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
			err = c.JSON(status, problem)
		}
		if err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}
