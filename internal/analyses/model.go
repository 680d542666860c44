package analyses

import "time"

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result is the structured outcome of one analysis run. A failed run keeps
// the raw model output so it can be inspected later.
type Result struct {
	Status                string          `json:"status"`
	AnalysisType          Type            `json:"analysisType"`
	DetailLevel           Level           `json:"detailLevel"`
	Options               Options         `json:"options"`
	Summary               string          `json:"summary"`
	KeyPoints             []string        `json:"keyPoints"`
	RiskFlags             []RiskFlag      `json:"riskFlags,omitempty"`
	Entities              []Entity        `json:"entities,omitempty"`
	Timeline              []TimelineEvent `json:"timeline,omitempty"`
	Insights              Insights        `json:"insights"`
	SimplifiedExplanation string          `json:"simplifiedExplanation,omitempty"`
	Recommendations       []string        `json:"recommendations,omitempty"`
	RawResponse           string          `json:"rawResponse,omitempty"`
	ErrorCode             string          `json:"errorCode,omitempty"`
	Error                 string          `json:"error,omitempty"`
	Provider              string          `json:"provider,omitempty"`
	Model                 string          `json:"model,omitempty"`
	DurationMs            int64           `json:"durationMs"`
	AnalyzedAt            time.Time       `json:"analyzedAt"`
}

// Insights holds document-level indicators. WordCount, CharacterCount and
// ReadingTimeMinutes are always computed locally.
type Insights struct {
	ComplexityScore    int      `json:"complexityScore"`
	ComplexityLevel    string   `json:"complexityLevel"`
	ComplexityEstimate bool     `json:"complexityEstimate,omitempty"`
	LegalAreas         []string `json:"legalAreas,omitempty"`
	Sentiment          string   `json:"sentiment,omitempty"`
	ImportantDates     []string `json:"importantDates,omitempty"`
	WordCount          int      `json:"wordCount"`
	CharacterCount     int      `json:"characterCount"`
	ReadingTimeMinutes int      `json:"readingTimeMinutes"`
}

// Entity is a party, date, amount or defined term found in the document.
type Entity struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// RiskFlag is one risk raised by the model.
type RiskFlag struct {
	Severity    string `json:"severity,omitempty"`
	Description string `json:"description"`
	Clause      string `json:"clause,omitempty"`
}

// TimelineEvent is a dated obligation or milestone.
type TimelineEvent struct {
	Date        string `json:"date,omitempty"`
	Description string `json:"description"`
}
