package extract

import (
	"strings"

	"evs-comms/backend/pkg/models"
)

var (
	scanKeywords   = []string{"clean", "repair", "fix", "replace", "maintain", "inspect", "update"}
	scanLocations  = []string{"building a", "building b", "floor", "room", "lobby", "elevator", "restroom"}
	scanPriorities = []string{"urgent", "asap", "immediately", "priority", "important"}
)

// Scan is the lightweight extraction used for pasted or forwarded text. It
// ignores message context: priority is high or medium, the location is a bare
// keyword and no deadline is parsed.
func Scan(content, source string) []models.TaskDraft {
	lower := strings.ToLower(content)
	if !containsAny(lower, scanKeywords) {
		return nil
	}

	title, _, _ := strings.Cut(content, ".")
	if title == "" {
		title = content
		if r := []rune(title); len(r) > maxTitleLen {
			title = string(r[:maxTitleLen])
		}
	}

	priority := models.PriorityMedium
	if containsAny(lower, scanPriorities) {
		priority = models.PriorityHigh
	}

	location := models.LocationNotSpecified
	for _, loc := range scanLocations {
		if strings.Contains(lower, loc) {
			location = loc
			break
		}
	}

	return []models.TaskDraft{{
		Title:             title,
		Description:       content,
		Priority:          priority,
		Location:          location,
		Category:          Category(content),
		EstimatedDuration: EstimateDuration(content),
		Source:            source,
	}}
}
