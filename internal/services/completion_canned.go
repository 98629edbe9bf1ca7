package services

import (
	"context"

	"evs-comms/backend/pkg/models"
)

// CannedCompleter answers from a fixed set of replies keyed by message
// priority. It is the default when no completion backend is configured.
type CannedCompleter struct{}

// Complete picks a reply for the "priority" entry of promptContext.
func (CannedCompleter) Complete(ctx context.Context, _ string, promptContext map[string]any) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	priority, _ := promptContext["priority"].(models.Priority)
	switch priority {
	case models.PriorityUrgent:
		return &Completion{
			Response:    "Understood. This is flagged as urgent and the on-duty team is being alerted now.",
			Suggestions: []string{"Confirm when staff arrive", "Report any safety hazard"},
		}, nil
	case models.PriorityHigh:
		return &Completion{
			Response:    "Got it. This request is prioritized for today.",
			Suggestions: []string{"Add a deadline if one applies"},
		}, nil
	default:
		return &Completion{
			Response: "Thanks, your request has been logged and will be scheduled.",
		}, nil
	}
}
