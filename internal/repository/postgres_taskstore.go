package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"evs-comms/backend/pkg/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id BIGSERIAL PRIMARY KEY,
	task_id TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'medium',
	status TEXT NOT NULL DEFAULT 'pending',
	location TEXT NOT NULL DEFAULT '',
	deadline TIMESTAMPTZ,
	estimated_minutes INT NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT 'general',
	requestor TEXT NOT NULL DEFAULT '',
	source_message_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS coverage_requests (
	id BIGSERIAL PRIMARY KEY,
	request_id TEXT UNIQUE NOT NULL,
	location TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	urgency TEXT NOT NULL DEFAULT 'normal',
	status TEXT NOT NULL DEFAULT 'open',
	source_message_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresTaskStore is a PostgreSQL implementation of the TaskStore interface.
type PostgresTaskStore struct {
	db *pgxpool.Pool
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db *pgxpool.Pool) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

// EnsureSchema creates the tasks and coverage_requests tables.
func (s *PostgresTaskStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Ping checks the connection pool.
func (s *PostgresTaskStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateTask saves a task to the store.
func (s *PostgresTaskStore) CreateTask(ctx context.Context, task *models.Task) error {
	task.TaskID = newTaskID()
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO tasks (task_id, title, description, priority, status, location, deadline, estimated_minutes, category, requestor, source_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		task.TaskID, task.Title, task.Description, string(task.Priority), task.Status, task.Location,
		task.Deadline, task.EstimatedMinutes, string(task.Category), task.Requestor, task.SourceMessageID,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// ListTasks returns all tasks, newest first.
func (s *PostgresTaskStore) ListTasks(ctx context.Context) ([]*models.Task, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, task_id, title, description, priority, status, location, deadline, estimated_minutes, category, requestor, source_message_id, created_at
		 FROM tasks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		var priority, category string
		err := rows.Scan(&t.ID, &t.TaskID, &t.Title, &t.Description, &priority, &t.Status, &t.Location,
			&t.Deadline, &t.EstimatedMinutes, &category, &t.Requestor, &t.SourceMessageID, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		t.Priority = models.Priority(priority)
		t.Category = models.TaskCategory(category)
		tasks = append(tasks, &t)
	}

	return tasks, rows.Err()
}

// CreateCoverageRequest saves a coverage request to the store.
func (s *PostgresTaskStore) CreateCoverageRequest(ctx context.Context, req *models.CoverageRequest) error {
	req.RequestID = newCoverageRequestID()
	if req.Status == "" {
		req.Status = models.CoverageStatusOpen
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO coverage_requests (request_id, location, reason, urgency, status, source_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		req.RequestID, req.Location, req.Reason, req.Urgency, req.Status, req.SourceMessageID,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert coverage request: %w", err)
	}
	return nil
}

// ListCoverageRequests returns all coverage requests, newest first.
func (s *PostgresTaskStore) ListCoverageRequests(ctx context.Context) ([]*models.CoverageRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, request_id, location, reason, urgency, status, source_message_id, created_at
		 FROM coverage_requests ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.CoverageRequest
	for rows.Next() {
		var r models.CoverageRequest
		if err := rows.Scan(&r.ID, &r.RequestID, &r.Location, &r.Reason, &r.Urgency, &r.Status, &r.SourceMessageID, &r.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, &r)
	}

	return reqs, rows.Err()
}
