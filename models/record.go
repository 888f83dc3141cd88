package models

// Season of cultivation. Wire values are lowercase; display labels
// (Kharif/Rabi/Zaid) live in the seasonal crop catalog.
type Season string

const (
	SeasonMonsoon Season = "monsoon"
	SeasonWinter  Season = "winter"
	SeasonSummer  Season = "summer"
)

// Seasons returns all seasons in catalog order.
func Seasons() []Season {
	return []Season{SeasonMonsoon, SeasonWinter, SeasonSummer}
}

// IsValid reports whether s is a recognized season.
func (s Season) IsValid() bool {
	switch s {
	case SeasonMonsoon, SeasonWinter, SeasonSummer:
		return true
	}
	return false
}

func (s Season) String() string { return string(s) }

// FarmRecord is the completed input record submitted for prediction.
// JSON tags for state/district/rainfall/groundwater/crop_history match the
// prediction service wire format.
type FarmRecord struct {
	State          string  `json:"state"`
	District       string  `json:"district"`
	RainfallMm     float64 `json:"rainfall"`
	GroundwaterBcm float64 `json:"groundwater"`
	CropHistory    string  `json:"crop_history"`
	Season         Season  `json:"season,omitempty"`
	ReferenceYear  string  `json:"referenceYear,omitempty"`
}
