package models

// Trend is the market direction for a crop price.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// MarketInsight is a derived market-price view for one crop of interest.
// Never stored; rebuilt from the price catalog for each verdict.
type MarketInsight struct {
	Crop      string   `json:"crop"`
	MarketAvg float64  `json:"marketAvg"`
	MSP       *float64 `json:"msp,omitempty"` // government support price, per quintal
	Trend     Trend    `json:"trend"`
	IsCurrent bool     `json:"isCurrent"` // true for the record's declared crop
}
