package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"evs-comms/backend/pkg/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'medium',
	status TEXT NOT NULL DEFAULT 'pending',
	location TEXT NOT NULL DEFAULT '',
	deadline TEXT,
	estimated_minutes INTEGER NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT 'general',
	requestor TEXT NOT NULL DEFAULT '',
	source_message_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS coverage_requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT UNIQUE NOT NULL,
	location TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	urgency TEXT NOT NULL DEFAULT 'normal',
	status TEXT NOT NULL DEFAULT 'open',
	source_message_id TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);`

// SQLiteTaskStore keeps tasks in a local SQLite file, for single-node setups
// without Postgres.
type SQLiteTaskStore struct {
	db *sql.DB
}

// OpenSQLiteTaskStore opens (or creates) the database at path.
func OpenSQLiteTaskStore(path string) (*SQLiteTaskStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return &SQLiteTaskStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteTaskStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteTaskStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteTaskStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteTaskStore) CreateTask(ctx context.Context, task *models.Task) error {
	task.TaskID = newTaskID()
	task.CreatedAt = time.Now().UTC()
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	var deadline sql.NullString
	if task.Deadline != nil {
		deadline = sql.NullString{String: task.Deadline.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (task_id, title, description, priority, status, location, deadline, estimated_minutes, category, requestor, source_message_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskID, task.Title, task.Description, string(task.Priority), task.Status, task.Location,
		deadline, task.EstimatedMinutes, string(task.Category), task.Requestor, task.SourceMessageID,
		task.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	task.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteTaskStore) ListTasks(ctx context.Context) ([]*models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, title, description, priority, status, location, deadline, estimated_minutes, category, requestor, source_message_id, created_at
		 FROM tasks ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		var priority, category, createdAt string
		var deadline sql.NullString
		err := rows.Scan(&t.ID, &t.TaskID, &t.Title, &t.Description, &priority, &t.Status, &t.Location,
			&deadline, &t.EstimatedMinutes, &category, &t.Requestor, &t.SourceMessageID, &createdAt)
		if err != nil {
			return nil, err
		}
		t.Priority = models.Priority(priority)
		t.Category = models.TaskCategory(category)
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("task %s: bad created_at: %w", t.TaskID, err)
		}
		if deadline.Valid {
			d, err := time.Parse(time.RFC3339Nano, deadline.String)
			if err != nil {
				return nil, fmt.Errorf("task %s: bad deadline: %w", t.TaskID, err)
			}
			t.Deadline = &d
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteTaskStore) CreateCoverageRequest(ctx context.Context, req *models.CoverageRequest) error {
	req.RequestID = newCoverageRequestID()
	req.CreatedAt = time.Now().UTC()
	if req.Status == "" {
		req.Status = models.CoverageStatusOpen
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO coverage_requests (request_id, location, reason, urgency, status, source_message_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.RequestID, req.Location, req.Reason, req.Urgency, req.Status, req.SourceMessageID,
		req.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert coverage request: %w", err)
	}
	req.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteTaskStore) ListCoverageRequests(ctx context.Context) ([]*models.CoverageRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, location, reason, urgency, status, source_message_id, created_at
		 FROM coverage_requests ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.CoverageRequest
	for rows.Next() {
		var r models.CoverageRequest
		var createdAt string
		if err := rows.Scan(&r.ID, &r.RequestID, &r.Location, &r.Reason, &r.Urgency, &r.Status, &r.SourceMessageID, &createdAt); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("coverage request %s: bad created_at: %w", r.RequestID, err)
		}
		reqs = append(reqs, &r)
	}
	return reqs, rows.Err()
}
