package models

// InsightType categorizes a predictive insight
type InsightType string

const (
	InsightTaskNeeded            InsightType = "task_needed"
	InsightCoverageGap           InsightType = "coverage_gap"
	InsightEfficiencyOpportunity InsightType = "efficiency_opportunity"
	InsightIssuePrevention       InsightType = "issue_prevention"
)

// Impact is the expected operational impact of an insight
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// PredictiveInsight is a derived observation about recent message patterns
type PredictiveInsight struct {
	ID               string      `json:"id"`
	Type             InsightType `json:"type"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Confidence       float64     `json:"confidence"`
	Impact           Impact      `json:"impact"`
	SuggestedActions []string    `json:"suggested_actions"`
	Timeframe        string      `json:"timeframe"`
	BasedOn          []string    `json:"based_on"`
}
