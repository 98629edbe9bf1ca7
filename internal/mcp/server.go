// Package mcp exposes the communication service as MCP tools over SSE.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"evs-comms/backend/internal/workflow"
	"evs-comms/backend/pkg/models"
)

// CommunicationService is the part of the service the tools call.
type CommunicationService interface {
	ProcessMessage(ctx context.Context, in models.MessageInput) (*models.Message, error)
	Messages(limit int) []models.Message
	Insights() []models.PredictiveInsight
	Workflows() []*models.Workflow
	ToggleWorkflow(id string, active bool) error
	ExecuteWorkflow(ctx context.Context, id string) (*models.Message, models.ExecutionRecord, error)
}

type Server struct {
	mcpServer *server.MCPServer
	svc       CommunicationService
}

func NewServer(svc CommunicationService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"EVS Communication Intelligence",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		svc: svc,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"send_message",
			mcp.WithDescription("Send a message to the EVS team channel; returns it with priority, extracted tasks and triggered workflows"),
			mcp.WithString("content", mcp.Required(), mcp.Description("The message text")),
			mcp.WithString("sender", mcp.Description("Who is sending the message")),
		),
		s.handleSendMessage,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_messages",
			mcp.WithDescription("List recent messages, newest first"),
			mcp.WithNumber("limit", mcp.Description("Maximum number of messages (default 50)")),
		),
		s.handleListMessages,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_insights",
			mcp.WithDescription("List the most recent predictive insights"),
		),
		s.handleListInsights,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List automation workflows with their success rates"),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"toggle_workflow",
			mcp.WithDescription("Enable or disable a workflow"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The workflow ID")),
			mcp.WithBoolean("active", mcp.Required(), mcp.Description("Whether the workflow should run")),
		),
		s.handleToggleWorkflow,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"execute_workflow",
			mcp.WithDescription("Run a workflow once, regardless of its trigger conditions"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The workflow ID")),
		),
		s.handleExecuteWorkflow,
	)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return mcp.NewToolResultError("Missing required parameter: content"), nil
	}
	sender, _ := args["sender"].(string)

	msg, err := s.svc.ProcessMessage(ctx, models.MessageInput{Content: content, Sender: sender})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}
	return jsonResult(msg)
}

func (s *Server) handleListMessages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 0
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}
	}
	return jsonResult(s.svc.Messages(limit))
}

func (s *Server) handleListInsights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Insights())
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Workflows())
}

func (s *Server) handleToggleWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	active, ok := args["active"].(bool)
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: active"), nil
	}

	if err := s.svc.ToggleWorkflow(id, active); err != nil {
		return workflowError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Workflow %s active=%t", id, active)), nil
}

func (s *Server) handleExecuteWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}

	msg, rec, err := s.svc.ExecuteWorkflow(ctx, id)
	if err != nil {
		return workflowError(err), nil
	}
	return jsonResult(map[string]any{
		"success":   rec.Success,
		"message":   msg,
		"execution": rec,
	})
}

func workflowError(err error) *mcp.CallToolResult {
	if errors.Is(err, workflow.ErrWorkflowNotFound) {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(fmt.Sprintf("Workflow operation failed: %v", err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers registers the SSE transport under /mcp.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
