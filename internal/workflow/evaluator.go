package workflow

import (
	"time"

	"evs-comms/backend/internal/extract"
	"evs-comms/backend/pkg/models"
)

// ClusteringWindow is how far back location clustering looks.
const ClusteringWindow = 30 * time.Minute

// History answers the window queries conditions need.
type History interface {
	CountSince(since time.Time) int
	CountLocationSince(location string, since time.Time) int
}

// Evaluator decides which workflows a message triggers. It reads the live
// message history, so results depend on what has been stored so far.
type Evaluator struct {
	history History
	locate  func(string) string
	now     func() time.Time
}

// NewEvaluator creates an evaluator over history.
func NewEvaluator(history History) *Evaluator {
	return &Evaluator{
		history: history,
		locate:  extract.Location,
		now:     time.Now,
	}
}

// Evaluate returns the ids of the active workflows msg triggers, in the
// order given. Conditions are OR-ed and evaluation of a workflow stops at
// the first matching condition.
func (e *Evaluator) Evaluate(msg *models.Message, workflows []*models.Workflow) []string {
	var triggered []string
	for _, wf := range workflows {
		if !wf.Active {
			continue
		}
		for _, c := range wf.Conditions {
			if e.Matches(c, msg) {
				triggered = append(triggered, wf.ID)
				break
			}
		}
	}
	return triggered
}

// Matches evaluates a single condition. Unknown condition types never match.
func (e *Evaluator) Matches(c models.Condition, msg *models.Message) bool {
	switch c.Type {
	case models.ConditionContainsKeywords:
		return extract.ContainsAnyFold(msg.Content, c.Keywords)
	case models.ConditionPriority:
		return msg.Priority == c.Level
	case models.ConditionLocationClustering:
		loc := e.locate(msg.Content)
		if loc == models.LocationNotSpecified {
			return false
		}
		return e.history.CountLocationSince(loc, e.now().Add(-ClusteringWindow)) >= c.Threshold
	case models.ConditionTimeWindow:
		since := e.now().Add(-time.Duration(c.Minutes) * time.Minute)
		return e.history.CountSince(since) > 1
	default:
		return false
	}
}
