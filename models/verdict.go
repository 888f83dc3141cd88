package models

// RiskLevel mirrors the prediction service risk classes.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// IsValid reports whether r is a recognized risk level.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Scheme is a government support scheme attached to a verdict.
type Scheme struct {
	Name        string   `json:"name"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	Link        string   `json:"link,omitempty"`
}

// PredictionVerdict is the structured risk result returned by the prediction
// service. Immutable once received; replaced wholesale each prediction cycle.
type PredictionVerdict struct {
	RiskLevel          RiskLevel `json:"risk_level"`
	FailureProbability float64   `json:"probability_of_failure"`
	Suggestions        []string  `json:"suggestions"`
	Schemes            []Scheme  `json:"schemes,omitempty"`
}
