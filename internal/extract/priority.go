// Package extract holds the keyword and pattern matching that turns free text
// into priorities, task drafts and canned suggestions. Every function here is
// total: when nothing matches it falls back to a documented default.
package extract

import (
	"strings"

	"evs-comms/backend/pkg/models"
)

var (
	urgentKeywords = []string{"emergency", "urgent", "asap", "immediately", "critical", "broken", "leak", "overflow"}
	highKeywords   = []string{"important", "priority", "soon", "today", "deadline"}
	mediumKeywords = []string{"when possible", "schedule", "plan"}
)

// ClassifyPriority maps text to a priority level. Keyword sets are checked
// urgent, high, medium in that order and the first hit wins.
func ClassifyPriority(text string) models.Priority {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, urgentKeywords):
		return models.PriorityUrgent
	case containsAny(lower, highKeywords):
		return models.PriorityHigh
	case containsAny(lower, mediumKeywords):
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// containsAny expects lower to be lowercased already.
func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// ContainsAnyFold reports whether text contains any keyword, ignoring case.
func ContainsAnyFold(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
