package models

import (
	"time"
)

// ConditionType tags a workflow trigger condition
type ConditionType string

const (
	ConditionContainsKeywords   ConditionType = "contains_keywords"
	ConditionPriority           ConditionType = "priority"
	ConditionLocationClustering ConditionType = "location_clustering"
	ConditionTimeWindow         ConditionType = "time_window"
)

// Condition is a tagged union; only the fields relevant to Type are set.
// Unknown types are kept as declared, with their settings in Params, and
// never match.
type Condition struct {
	Type      ConditionType  `json:"type" yaml:"type"`
	Keywords  []string       `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Level     Priority       `json:"level,omitempty" yaml:"level,omitempty"`
	Threshold int            `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Minutes   int            `json:"minutes,omitempty" yaml:"minutes,omitempty"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// ActionType tags a workflow action
type ActionType string

const (
	ActionExtractTask           ActionType = "extract_task"
	ActionFindAvailableStaff    ActionType = "find_available_staff"
	ActionAutoAssign            ActionType = "auto_assign"
	ActionSendNotification      ActionType = "send_notification"
	ActionPredictCoverageGap    ActionType = "predict_coverage_gap"
	ActionSuggestRedistribution ActionType = "suggest_staff_redistribution"
	ActionCreateCoverageRequest ActionType = "create_coverage_request"
	ActionEscalate              ActionType = "escalate_to_supervisor"
	ActionSuggestAlternatives   ActionType = "suggest_alternatives"
	ActionUpdatePriority        ActionType = "update_priority"
)

// Action is a single step of a workflow. Priority is only meaningful for
// extract_task, where it overrides the draft priority.
type Action struct {
	Type     ActionType `json:"type" yaml:"type"`
	Priority Priority   `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// ExecutionRecord is one entry of a workflow's append-only history
type ExecutionRecord struct {
	Timestamp        time.Time `json:"timestamp"`
	Success          bool      `json:"success"`
	ExecutionTime    float64   `json:"execution_time"` // minutes
	TriggerMessageID string    `json:"trigger_message_id"`
	Error            string    `json:"error,omitempty"`
}

// Workflow is a named automation with trigger conditions and an ordered
// action list.
type Workflow struct {
	ID                string            `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	Trigger           string            `json:"trigger" yaml:"trigger"`
	Conditions        []Condition       `json:"conditions" yaml:"conditions"`
	Actions           []Action          `json:"actions" yaml:"actions"`
	SuccessRate       float64           `json:"success_rate" yaml:"success_rate"`
	AvgCompletionTime float64           `json:"avg_completion_time" yaml:"avg_completion_time"`
	Active            bool              `json:"active" yaml:"active"`
	ExecutionHistory  []ExecutionRecord `json:"execution_history" yaml:"-"`
}

// Clone returns a deep copy safe to hand out of a locked registry.
func (w *Workflow) Clone() *Workflow {
	c := *w
	c.Conditions = append([]Condition(nil), w.Conditions...)
	c.Actions = append([]Action(nil), w.Actions...)
	c.ExecutionHistory = append([]ExecutionRecord{}, w.ExecutionHistory...)
	return &c
}
