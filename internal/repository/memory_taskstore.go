package repository

import (
	"context"
	"sync"
	"time"

	"evs-comms/backend/pkg/models"
)

// DefaultMemoryRecords bounds how many tasks and how many coverage requests a
// MemoryTaskStore retains. Older records are dropped first.
const DefaultMemoryRecords = 1000

// MemoryTaskStore keeps tasks in process memory. It is the default store when
// no database is configured and the store used by tests.
type MemoryTaskStore struct {
	mu        sync.Mutex
	limit     int
	tasks     []*models.Task
	coverage  []*models.CoverageRequest
	nextID    int64
	nextCovID int64
}

// NewMemoryTaskStore creates an empty MemoryTaskStore.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{limit: DefaultMemoryRecords}
}

func trimOldest[T any](records []T, limit int) []T {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	kept := make([]T, limit)
	copy(kept, records[len(records)-limit:])
	return kept
}

func (s *MemoryTaskStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *MemoryTaskStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryTaskStore) CreateTask(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	task.ID = s.nextID
	task.TaskID = newTaskID()
	task.CreatedAt = time.Now().UTC()
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	stored := *task
	s.tasks = trimOldest(append(s.tasks, &stored), s.limit)
	return nil
}

func (s *MemoryTaskStore) ListTasks(ctx context.Context) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Task, 0, len(s.tasks))
	for i := len(s.tasks) - 1; i >= 0; i-- {
		t := *s.tasks[i]
		out = append(out, &t)
	}
	return out, nil
}

func (s *MemoryTaskStore) CreateCoverageRequest(ctx context.Context, req *models.CoverageRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCovID++
	req.ID = s.nextCovID
	req.RequestID = newCoverageRequestID()
	req.CreatedAt = time.Now().UTC()
	if req.Status == "" {
		req.Status = models.CoverageStatusOpen
	}
	stored := *req
	s.coverage = trimOldest(append(s.coverage, &stored), s.limit)
	return nil
}

func (s *MemoryTaskStore) ListCoverageRequests(ctx context.Context) ([]*models.CoverageRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.CoverageRequest, 0, len(s.coverage))
	for i := len(s.coverage) - 1; i >= 0; i-- {
		r := *s.coverage[i]
		out = append(out, &r)
	}
	return out, nil
}
