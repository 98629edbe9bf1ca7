package models

import (
	"time"
)

// LocationNotSpecified is the location reported when no pattern matches.
const LocationNotSpecified = "Not specified"

// TaskCategory classifies the kind of work a task describes
type TaskCategory string

const (
	CategoryCleaning    TaskCategory = "cleaning"
	CategoryMaintenance TaskCategory = "maintenance"
	CategoryRestocking  TaskCategory = "restocking"
	CategoryInspection  TaskCategory = "inspection"
	CategoryGeneral     TaskCategory = "general"
)

// TaskDraft is a provisional task extracted from a message. It is not
// persisted unless a workflow action decides to.
type TaskDraft struct {
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Priority          Priority     `json:"priority"`
	Location          string       `json:"location"`
	Deadline          *time.Time   `json:"deadline"`
	Category          TaskCategory `json:"category"`
	EstimatedDuration int          `json:"estimated_duration"` // minutes
	AutoCreated       bool         `json:"auto_created"`
	SourceMessageID   string       `json:"source_message_id,omitempty"`
	Source            string       `json:"source,omitempty"`
}

// Task is a persisted work item
type Task struct {
	ID               int64        `json:"id" db:"id"`
	TaskID           string       `json:"task_id" db:"task_id"`
	Title            string       `json:"title" db:"title"`
	Description      string       `json:"description" db:"description"`
	Priority         Priority     `json:"priority" db:"priority"`
	Status           string       `json:"status" db:"status"`
	Location         string       `json:"location" db:"location"`
	Deadline         *time.Time   `json:"deadline,omitempty" db:"deadline"`
	EstimatedMinutes int          `json:"estimated_minutes" db:"estimated_minutes"`
	Category         TaskCategory `json:"category" db:"category"`
	Requestor        string       `json:"requestor,omitempty" db:"requestor"`
	SourceMessageID  string       `json:"source_message_id,omitempty" db:"source_message_id"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
}

// TaskStatusPending is the initial status of every created task.
const TaskStatusPending = "pending"

// CoverageRequest asks for staff coverage at a location
type CoverageRequest struct {
	ID              int64     `json:"id" db:"id"`
	RequestID       string    `json:"request_id" db:"request_id"`
	Location        string    `json:"location" db:"location"`
	Reason          string    `json:"reason" db:"reason"`
	Urgency         string    `json:"urgency" db:"urgency"`
	Status          string    `json:"status" db:"status"`
	SourceMessageID string    `json:"source_message_id,omitempty" db:"source_message_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// CoverageStatusOpen is the initial status of every coverage request.
const CoverageStatusOpen = "open"

// NewTask builds the persisted form of a draft. Identity fields are assigned
// by the store.
func NewTask(d TaskDraft, requestor string) *Task {
	return &Task{
		Title:            d.Title,
		Description:      d.Description,
		Priority:         d.Priority,
		Status:           TaskStatusPending,
		Location:         d.Location,
		Deadline:         d.Deadline,
		EstimatedMinutes: d.EstimatedDuration,
		Category:         d.Category,
		Requestor:        requestor,
		SourceMessageID:  d.SourceMessageID,
	}
}
