// Package insight detects patterns in recent message traffic and keeps the
// predictive insights derived from them.
package insight

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"evs-comms/backend/internal/extract"
	"evs-comms/backend/pkg/models"
)

// PatternType names a detected traffic pattern
type PatternType string

const (
	PatternPeakActivity    PatternType = "peak_activity"
	PatternLocationHotspot PatternType = "location_hotspot"
	PatternPrioritySpike   PatternType = "priority_spike"
)

// minInsightConfidence is the confidence a pattern must exceed to become an
// insight.
const minInsightConfidence = 0.7

// Pattern is a raw observation over the message history
type Pattern struct {
	Type       PatternType   `json:"type"`
	Confidence float64       `json:"confidence"`
	Impact     models.Impact `json:"impact"`
	Hour       int           `json:"hour,omitempty"`
	Location   string        `json:"location,omitempty"`
	Count      int           `json:"count"`
}

// Analyzer scans the full message history for patterns, AI replies
// included.
type Analyzer struct {
	locate func(string) string
}

// NewAnalyzer creates an analyzer using the task extractor's location rules.
func NewAnalyzer() *Analyzer {
	return &Analyzer{locate: extract.Location}
}

// Analyze returns the patterns found in messages as of now. Patterns come
// out in a fixed order: peak activity, location hotspots by name, priority
// spike.
func (a *Analyzer) Analyze(messages []models.Message, now time.Time) []Pattern {
	var (
		byHour    [24]int
		locations = map[string]int{}
		urgent    int
		dayAgo    = now.Add(-24 * time.Hour)
	)
	for _, m := range messages {
		byHour[m.Timestamp.Local().Hour()]++
		if loc := a.locate(m.Content); loc != models.LocationNotSpecified {
			locations[loc]++
		}
		if m.Priority == models.PriorityUrgent && !m.Timestamp.Before(dayAgo) {
			urgent++
		}
	}

	var patterns []Pattern

	// ties go to the later hour
	peak := 0
	for h := 1; h < 24; h++ {
		if byHour[h] >= byHour[peak] {
			peak = h
		}
	}
	if byHour[peak] > 5 {
		patterns = append(patterns, Pattern{
			Type:       PatternPeakActivity,
			Confidence: 0.8,
			Impact:     models.ImpactMedium,
			Hour:       peak,
			Count:      byHour[peak],
		})
	}

	names := make([]string, 0, len(locations))
	for loc := range locations {
		names = append(names, loc)
	}
	sort.Strings(names)
	for _, loc := range names {
		count := locations[loc]
		if count <= 3 {
			continue
		}
		impact := models.ImpactMedium
		if count > 5 {
			impact = models.ImpactHigh
		}
		patterns = append(patterns, Pattern{
			Type:       PatternLocationHotspot,
			Confidence: min(float64(count)/10, 0.95),
			Impact:     impact,
			Location:   loc,
			Count:      count,
		})
	}

	if urgent > 2 {
		patterns = append(patterns, Pattern{
			Type:       PatternPrioritySpike,
			Confidence: 0.9,
			Impact:     models.ImpactHigh,
			Count:      urgent,
		})
	}
	return patterns
}

// ToInsights converts confident patterns into insights.
func ToInsights(patterns []Pattern) []models.PredictiveInsight {
	var out []models.PredictiveInsight
	for _, p := range patterns {
		if p.Confidence <= minInsightConfidence {
			continue
		}
		if in, ok := toInsight(p); ok {
			out = append(out, in)
		}
	}
	return out
}

func toInsight(p Pattern) (models.PredictiveInsight, bool) {
	in := models.PredictiveInsight{
		ID:         "insight_" + uuid.NewString(),
		Confidence: p.Confidence,
		Impact:     p.Impact,
		BasedOn:    []string{string(p.Type)},
	}
	switch p.Type {
	case PatternPeakActivity:
		in.Type = models.InsightEfficiencyOpportunity
		in.Title = fmt.Sprintf("Peak activity around %02d:00", p.Hour)
		in.Description = fmt.Sprintf("%d requests arrived during the %02d:00 hour", p.Count, p.Hour)
		in.SuggestedActions = []string{
			fmt.Sprintf("Schedule additional staff before %02d:00", p.Hour),
			"Pre-stage supplies for the busy period",
		}
		in.Timeframe = "Daily"
	case PatternLocationHotspot:
		in.Type = models.InsightIssuePrevention
		in.Title = "Recurring requests in " + p.Location
		in.Description = fmt.Sprintf("%s has generated %d requests; a recurring issue is likely", p.Location, p.Count)
		in.SuggestedActions = []string{
			"Schedule a preventive inspection of " + p.Location,
			"Increase routine cleaning frequency in " + p.Location,
		}
		in.Timeframe = "Next 24 hours"
		in.BasedOn = append(in.BasedOn, p.Location)
	case PatternPrioritySpike:
		in.Type = models.InsightTaskNeeded
		in.Title = "Spike in urgent requests"
		in.Description = fmt.Sprintf("%d urgent requests in the last 24 hours", p.Count)
		in.SuggestedActions = []string{
			"Review open urgent tasks",
			"Assign a supervisor to triage incoming requests",
		}
		in.Timeframe = "Next 4 hours"
	default:
		return models.PredictiveInsight{}, false
	}
	return in, true
}
