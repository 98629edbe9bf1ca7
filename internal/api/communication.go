package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"evs-comms/backend/internal/auth"
	"evs-comms/backend/internal/services"
	"evs-comms/backend/internal/workflow"
	"evs-comms/backend/pkg/models"
)

const defaultMessageLimit = 50

// ToggleRequest is the body of the toggle endpoint
type ToggleRequest struct {
	Active *bool `json:"active"`
}

// ExecuteResponse reports a manual workflow run
type ExecuteResponse struct {
	Success   bool                   `json:"success"`
	Message   *models.Message        `json:"message"`
	Execution models.ExecutionRecord `json:"execution"`
}

// ScanRequest is the body of the text scan endpoint
type ScanRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// SendMessage ingests a message
// (POST /api/v1/communication/send)
func (h *Handler) SendMessage(c echo.Context) error {
	var in models.MessageInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if in.Sender == "" {
		if user, ok := auth.UserFromContext(c.Request().Context()); ok {
			in.Sender = user.DisplayName()
		}
	}

	msg, err := h.svc.ProcessMessage(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, services.ErrEmptyContent) || errors.Is(err, services.ErrInvalidMessageType) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process message").SetInternal(err)
	}
	return c.JSON(http.StatusOK, msg)
}

// ListMessages returns recent messages, newest first
// (GET /api/v1/communication/messages)
func (h *Handler) ListMessages(c echo.Context) error {
	limit := defaultMessageLimit
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &limit); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid format for parameter limit: "+err.Error())
	}
	if limit <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be positive")
	}
	return c.JSON(http.StatusOK, h.svc.Messages(limit))
}

// ListInsights returns the most recent insights
// (GET /api/v1/communication/insights)
func (h *Handler) ListInsights(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Insights())
}

// ListWorkflows returns every workflow with its stats
// (GET /api/v1/communication/workflows)
func (h *Handler) ListWorkflows(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Workflows())
}

// ToggleWorkflow enables or disables a workflow
// (POST /api/v1/communication/workflows/:id/toggle)
func (h *Handler) ToggleWorkflow(c echo.Context) error {
	var req ToggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.Active == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "active is required")
	}
	if err := h.svc.ToggleWorkflow(c.Param("id"), *req.Active); err != nil {
		return workflowError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// ExecuteWorkflow runs a workflow once, bypassing its triggers
// (POST /api/v1/communication/workflows/:id/execute)
func (h *Handler) ExecuteWorkflow(c echo.Context) error {
	msg, rec, err := h.svc.ExecuteWorkflow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return workflowError(err)
	}
	return c.JSON(http.StatusOK, ExecuteResponse{Success: rec.Success, Message: msg, Execution: rec})
}

// Analyze runs the pattern analysis immediately
// (POST /api/v1/communication/analyze)
func (h *Handler) Analyze(c echo.Context) error {
	insights := h.svc.RunAnalysis(c.Request().Context())
	if insights == nil {
		insights = []models.PredictiveInsight{}
	}
	return c.JSON(http.StatusOK, insights)
}

// ScanText extracts task drafts from free text without storing anything
// (POST /api/v1/text-scan)
func (h *Handler) ScanText(c echo.Context) error {
	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	drafts, err := h.svc.ScanText(req.Content, req.Source)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if drafts == nil {
		drafts = []models.TaskDraft{}
	}
	return c.JSON(http.StatusOK, map[string]any{"extracted_tasks": drafts})
}

// ListTasks returns persisted tasks
// (GET /api/v1/tasks)
func (h *Handler) ListTasks(c echo.Context) error {
	tasks, err := h.svc.Tasks(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tasks").SetInternal(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// ListCoverageRequests returns persisted coverage requests
// (GET /api/v1/coverage-requests)
func (h *Handler) ListCoverageRequests(c echo.Context) error {
	reqs, err := h.svc.CoverageRequests(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list coverage requests").SetInternal(err)
	}
	return c.JSON(http.StatusOK, reqs)
}

func workflowError(err error) error {
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Workflow operation failed").SetInternal(err)
}
