package repository

import (
	"context"
	"errors"

	"evs-comms/backend/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// TaskStore persists tasks and coverage requests created by workflow actions.
type TaskStore interface {
	// EnsureSchema creates the backing tables if they do not exist.
	EnsureSchema(ctx context.Context) error
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	// CreateTask saves a task and fills in its ID, TaskID and CreatedAt.
	CreateTask(ctx context.Context, task *models.Task) error
	// ListTasks returns tasks newest first.
	ListTasks(ctx context.Context) ([]*models.Task, error)
	// CreateCoverageRequest saves a coverage request and fills in its ID,
	// RequestID and CreatedAt.
	CreateCoverageRequest(ctx context.Context, req *models.CoverageRequest) error
	// ListCoverageRequests returns coverage requests newest first.
	ListCoverageRequests(ctx context.Context) ([]*models.CoverageRequest, error)
}
