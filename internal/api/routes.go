package api

import "github.com/labstack/echo/v4"

// RegisterHandlers mounts the REST API on g, which is expected to be the
// authenticated /api/v1 group.
func RegisterHandlers(g *echo.Group, h *Handler) {
	comm := g.Group("/communication")
	comm.POST("/send", h.SendMessage)
	comm.GET("/messages", h.ListMessages)
	comm.GET("/insights", h.ListInsights)
	comm.GET("/workflows", h.ListWorkflows)
	comm.POST("/workflows/:id/toggle", h.ToggleWorkflow)
	comm.POST("/workflows/:id/execute", h.ExecuteWorkflow)
	comm.POST("/analyze", h.Analyze)
	comm.GET("/stream", h.Stream)

	g.POST("/text-scan", h.ScanText)
	g.GET("/tasks", h.ListTasks)
	g.GET("/coverage-requests", h.ListCoverageRequests)
}
