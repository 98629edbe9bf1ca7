package extract

import (
	"strings"
)

const maxSuggestions = 3

type suggestionGroup struct {
	keywords    []string
	suggestions []string
}

var suggestionGroups = []suggestionGroup{
	{
		keywords: []string{"clean"},
		suggestions: []string{
			"Schedule deep cleaning for this area",
			"Check supply levels for cleaning materials",
			"Assign additional staff if needed",
		},
	},
	{
		keywords: []string{"urgent", "emergency"},
		suggestions: []string{
			"Escalate to supervisor immediately",
			"Dispatch nearest available staff",
			"Set up temporary coverage if needed",
		},
	},
	{
		keywords: []string{"broken", "repair"},
		suggestions: []string{
			"Contact maintenance team",
			"Create work order",
			"Set up temporary alternative",
		},
	},
}

// Suggestions returns up to three canned follow-ups. Groups are checked
// cleaning, urgency, repair and their suggestions accumulate in that order.
func Suggestions(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, g := range suggestionGroups {
		if containsAny(lower, g.keywords) {
			out = append(out, g.suggestions...)
		}
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}
