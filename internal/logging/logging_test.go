package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_KeyValuePairs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core)).With("component", "test")

	l.Info("workflow executed", "workflow_id", "urgent-task-auto-assign", "success", true)
	l.Debug("debug line")
	l.Warn("slow completion", "elapsed_ms", 1200)
	l.Error("action failed", "error", "boom")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "workflow executed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.Equal(t, "urgent-task-auto-assign", fields["workflow_id"])
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("discarded", "k", "v")
	})
}
