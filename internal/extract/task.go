package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"evs-comms/backend/pkg/models"
)

const maxTitleLen = 50

var taskKeywords = []string{"clean", "sanitize", "restock", "repair", "replace", "check", "inspect", "maintain", "fix"}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)room\s+(\d+[a-zA-Z]?)`),
	regexp.MustCompile(`(?i)floor\s+(\d+)`),
	regexp.MustCompile(`(?i)(bathroom|restroom|office|lobby|cafeteria|elevator|hallway)`),
}

var (
	byClockPattern  = regexp.MustCompile(`(?i)by\s+(\d{1,2}):(\d{2})`)
	relativeDay     = regexp.MustCompile(`(?i)(today|tomorrow|asap|immediately)`)
	inDurationRegex = regexp.MustCompile(`(?i)in\s+(\d+)\s+(hours?|minutes?)`)
)

type categoryRule struct {
	category models.TaskCategory
	keywords []string
}

// Order matters: "check" appears under both maintenance and inspection and
// resolves to maintenance.
var categoryRules = []categoryRule{
	{models.CategoryCleaning, []string{"clean", "sanitize", "vacuum", "mop", "dust"}},
	{models.CategoryMaintenance, []string{"repair", "fix", "replace", "maintain", "check"}},
	{models.CategoryRestocking, []string{"restock", "refill", "supply", "replenish"}},
	{models.CategoryInspection, []string{"inspect", "check", "verify", "monitor"}},
}

// Extractor derives task drafts from messages. Now supplies the reference time
// for relative deadlines.
type Extractor struct {
	Now func() time.Time
}

// NewExtractor returns an Extractor on the wall clock.
func NewExtractor() *Extractor {
	return &Extractor{Now: time.Now}
}

// Extract returns at most one draft for msg. Nothing is returned unless the
// text contains a task verb.
func (e *Extractor) Extract(msg *models.Message) []models.TaskDraft {
	if !IsActionable(msg.Content) {
		return nil
	}
	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}
	return []models.TaskDraft{{
		Title:             Title(msg.Content),
		Description:       msg.Content,
		Priority:          msg.Priority,
		Location:          Location(msg.Content),
		Deadline:          Deadline(msg.Content, now),
		Category:          Category(msg.Content),
		EstimatedDuration: EstimateDuration(msg.Content),
		AutoCreated:       true,
		SourceMessageID:   msg.ID,
	}}
}

// IsActionable reports whether text mentions any task verb.
func IsActionable(text string) bool {
	return containsAny(strings.ToLower(text), taskKeywords)
}

// Title is the text up to the first period, shortened to 50 characters.
func Title(text string) string {
	first, _, _ := strings.Cut(text, ".")
	r := []rune(first)
	if len(r) > maxTitleLen {
		return string(r[:maxTitleLen-3]) + "..."
	}
	return first
}

// Location returns the first room, floor or named-area mention, in the casing
// it was written, or models.LocationNotSpecified.
func Location(text string) string {
	for _, p := range locationPatterns {
		if m := p.FindString(text); m != "" {
			return m
		}
	}
	return models.LocationNotSpecified
}

// Deadline parses the first relative-time phrase in text against now. It
// returns nil when the text carries no recognizable deadline.
func Deadline(text string, now time.Time) *time.Time {
	if m := byClockPattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			return &t
		}
		return nil
	}
	if m := relativeDay.FindString(text); m != "" {
		var t time.Time
		switch strings.ToLower(m) {
		case "today":
			t = time.Date(now.Year(), now.Month(), now.Day(), 17, 0, 0, 0, now.Location())
		case "tomorrow":
			t = time.Date(now.Year(), now.Month(), now.Day()+1, 9, 0, 0, 0, now.Location())
		default:
			t = now
		}
		return &t
	}
	if m := inDurationRegex.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := time.Minute
		if strings.HasPrefix(strings.ToLower(m[2]), "hour") {
			unit = time.Hour
		}
		t := now.Add(time.Duration(n) * unit)
		return &t
	}
	return nil
}

// Category returns the first category whose keyword set matches.
func Category(text string) models.TaskCategory {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		if containsAny(lower, rule.keywords) {
			return rule.category
		}
	}
	return models.CategoryGeneral
}

// EstimateDuration buckets the work into a duration in minutes.
func EstimateDuration(text string) int {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, []string{"deep clean", "thorough"}):
		return 120
	case containsAny(lower, []string{"quick", "spot"}):
		return 15
	case containsAny(lower, []string{"repair", "fix"}):
		return 60
	case containsAny(lower, []string{"restock", "refill"}):
		return 30
	}
	return 45
}
