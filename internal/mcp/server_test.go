package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evs-comms/backend/internal/logging"
	"evs-comms/backend/internal/repository"
	"evs-comms/backend/internal/services"
	"evs-comms/backend/pkg/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc, err := services.NewCommunicationService(repository.NewMemoryTaskStore(), services.CannedCompleter{}, nil, logging.Nop(), services.Options{})
	require.NoError(t, err)
	return NewServer(svc)
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestSendAndListMessages(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleSendMessage(ctx, call(map[string]interface{}{
		"content": "Emergency: broken pipe on floor 2",
		"sender":  "assistant",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var msg models.Message
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &msg))
	assert.Equal(t, models.PriorityUrgent, msg.Priority)
	assert.Equal(t, "assistant", msg.Sender)

	res, err = s.handleListMessages(ctx, call(map[string]interface{}{"limit": float64(1)}))
	require.NoError(t, err)
	var msgs []models.Message
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &msgs))
	assert.Len(t, msgs, 1)
}

func TestSendMessage_MissingContent(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleSendMessage(context.Background(), call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestWorkflowTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleListWorkflows(ctx, call(nil))
	require.NoError(t, err)
	var wfs []models.Workflow
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &wfs))
	assert.Len(t, wfs, 3)

	res, err = s.handleToggleWorkflow(ctx, call(map[string]interface{}{"id": "coverage-gap-predictor", "active": false}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleToggleWorkflow(ctx, call(map[string]interface{}{"id": "missing", "active": true}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleToggleWorkflow(ctx, call(map[string]interface{}{"id": "coverage-gap-predictor"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "active is required")

	res, err = s.handleExecuteWorkflow(ctx, call(map[string]interface{}{"id": "urgent-task-auto-assign"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	var out struct {
		Success   bool                   `json:"success"`
		Execution models.ExecutionRecord `json:"execution"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.True(t, out.Success)

	res, err = s.handleExecuteWorkflow(ctx, call(map[string]interface{}{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListInsights(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleListInsights(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", resultText(t, res))
}

func TestRegisteredTools(t *testing.T) {
	s := newTestServer(t)
	tools := s.GetMCPServer().ListTools()
	for _, name := range []string{"send_message", "list_messages", "list_insights", "list_workflows", "toggle_workflow", "execute_workflow"} {
		assert.Contains(t, tools, name)
	}
}
