// Package workflow holds the workflow registry, the trigger evaluator and the
// executor that runs workflow actions against incoming messages.
package workflow

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"evs-comms/backend/pkg/models"
)

// ErrWorkflowNotFound is returned for ids the registry does not know.
var ErrWorkflowNotFound = errors.New("workflow not found")

// statsWindow is the number of most recent executions stats are computed from.
const statsWindow = 10

//go:embed defaults.yaml
var defaultsYAML []byte

// LoadDefaults parses the built-in workflow set.
func LoadDefaults() ([]models.Workflow, error) {
	return ParseWorkflows(defaultsYAML)
}

// ParseWorkflows decodes a YAML list of workflow definitions.
func ParseWorkflows(data []byte) ([]models.Workflow, error) {
	var wfs []models.Workflow
	if err := yaml.Unmarshal(data, &wfs); err != nil {
		return nil, fmt.Errorf("failed to parse workflows: %w", err)
	}
	return wfs, nil
}

// Registry owns the workflow set. History, stats and the active flag of
// every workflow are guarded by a single mutex.
type Registry struct {
	mu        sync.Mutex
	order     []string
	workflows map[string]*models.Workflow
}

// NewRegistry creates a registry from the given definitions, keeping their
// order.
func NewRegistry(wfs []models.Workflow) (*Registry, error) {
	r := &Registry{workflows: make(map[string]*models.Workflow, len(wfs))}
	for i := range wfs {
		wf := wfs[i]
		if wf.ID == "" {
			return nil, fmt.Errorf("workflow %q has no id", wf.Name)
		}
		if _, dup := r.workflows[wf.ID]; dup {
			return nil, fmt.Errorf("duplicate workflow id %q", wf.ID)
		}
		r.workflows[wf.ID] = wf.Clone()
		r.order = append(r.order, wf.ID)
	}
	return r, nil
}

// NewDefaultRegistry creates a registry holding the built-in workflows.
func NewDefaultRegistry() (*Registry, error) {
	wfs, err := LoadDefaults()
	if err != nil {
		return nil, err
	}
	return NewRegistry(wfs)
}

// Get returns a copy of the workflow with the given id.
func (r *Registry) Get(id string) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wf, ok := r.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return wf.Clone(), nil
}

// List returns copies of all workflows in definition order.
func (r *Registry) List() []*models.Workflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*models.Workflow, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workflows[id].Clone())
	}
	return out
}

// ActiveCount returns the number of active workflows.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, wf := range r.workflows {
		if wf.Active {
			n++
		}
	}
	return n
}

// SetActive enables or disables a workflow.
func (r *Registry) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wf, ok := r.workflows[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	wf.Active = active
	return nil
}

// RecordExecution appends rec to the workflow history and recomputes its
// stats in the same critical section. It returns the updated workflow.
func (r *Registry) RecordExecution(id string, rec models.ExecutionRecord) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wf, ok := r.workflows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	wf.ExecutionHistory = append(wf.ExecutionHistory, rec)
	wf.SuccessRate, wf.AvgCompletionTime = computeStats(wf.ExecutionHistory)
	return wf.Clone(), nil
}

// computeStats derives the success rate (percent) and mean execution time
// from the last statsWindow records.
func computeStats(history []models.ExecutionRecord) (successRate, avgTime float64) {
	recent := history
	if len(recent) > statsWindow {
		recent = recent[len(recent)-statsWindow:]
	}
	if len(recent) == 0 {
		return 0, 0
	}
	successes := 0
	total := 0.0
	for _, rec := range recent {
		if rec.Success {
			successes++
		}
		total += rec.ExecutionTime
	}
	n := float64(len(recent))
	return float64(successes) / n * 100, total / n
}
