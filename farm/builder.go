// Package farm holds the in-progress farm input record. The Builder applies
// user edits and reference-data auto-population, keeps the district and crop
// selections consistent with the current state/season, and validates the
// record into a models.FarmRecord at submission time.
package farm

import (
	"strconv"
	"sync"

	"watersower/models"
	"watersower/refdata"
)

// Builder owns one user's in-progress record. Handlers run concurrently, so
// every mutation and read goes through the mutex.
type Builder struct {
	mu  sync.Mutex
	cat *refdata.Catalog

	state     string
	district  string
	districts []string

	// Numeric fields stay as the user's text until Build parses them.
	rainfall    string
	groundwater string

	season models.Season
	crop   string
	year   string
}

// Snapshot is the reactive view a client renders from.
type Snapshot struct {
	State       string `json:"state"`
	District    string `json:"district"`
	Rainfall    string `json:"rainfall"`
	Groundwater string `json:"groundwater"`
	Crop        string `json:"crop"`

	Season models.Season `json:"season"`
	Year   string        `json:"year"`

	Districts   []string             `json:"districts"`
	States      []string             `json:"states"`
	Years       []string             `json:"years"`
	Seasons     []models.Season      `json:"seasons"`
	CropOptions []refdata.CropOption `json:"cropOptions"`
}

// NewBuilder returns an empty record with the default season, crop and year.
func NewBuilder(cat *refdata.Catalog) *Builder {
	return &Builder{
		cat:       cat,
		districts: []string{},
		season:    models.SeasonMonsoon,
		crop:      cat.FirstCrop(models.SeasonMonsoon),
		year:      refdata.DefaultYear,
	}
}

// SetState updates the state, clears the district, repopulates the district
// list and re-runs the environmental lookups for the current year.
func (b *Builder) SetState(state string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
	b.district = ""
	b.districts = b.cat.Districts(state)
	b.applyLookups()
}

// SetDistrict picks a district; it must belong to the current state's list.
func (b *Builder) SetDistrict(district string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.districts {
		if d == district {
			b.district = district
			return nil
		}
	}
	return &models.ValidationError{Problems: map[string]string{
		"district": "not a district of the selected state",
	}}
}

// SetYear switches the reference year and re-runs the lookups for the current
// state. Unsupported years are rejected.
func (b *Builder) SetYear(year string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !refdata.YearSupported(year) {
		return &models.ValidationError{Problems: map[string]string{
			"year": "unsupported reference year",
		}}
	}
	b.year = year
	b.applyLookups()
	return nil
}

// SetSeason switches the season and resets the crop to the new season's first
// catalog entry.
func (b *Builder) SetSeason(season models.Season) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !season.IsValid() {
		return &models.ValidationError{Problems: map[string]string{
			"season": "unknown season",
		}}
	}
	b.season = season
	b.crop = b.cat.FirstCrop(season)
	return nil
}

// SetCrop picks a crop; it must belong to the current season's catalog.
func (b *Builder) SetCrop(crop string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cat.HasCrop(b.season, crop) {
		return &models.ValidationError{Problems: map[string]string{
			"crop": "not in the current season's catalog",
		}}
	}
	b.crop = crop
	return nil
}

// SetField applies a free-text edit to one of the numeric inputs. The text is
// kept verbatim; parsing happens in Build.
func (b *Builder) SetField(name, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch name {
	case "rainfall":
		b.rainfall = value
	case "groundwater":
		b.groundwater = value
	default:
		return &models.ValidationError{Problems: map[string]string{
			name: "unknown field",
		}}
	}
	return nil
}

// applyLookups resolves rainfall and groundwater for the current state and
// year. A found value overwrites the field; absent leaves it untouched.
// Caller holds the mutex.
func (b *Builder) applyLookups() {
	if v, ok := b.cat.Resolve(refdata.DatasetRainfall, b.state, b.year); ok {
		b.rainfall = strconv.FormatFloat(v, 'f', -1, 64)
	}
	if v, ok := b.cat.Resolve(refdata.DatasetGroundwater, b.state, b.year); ok {
		b.groundwater = strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Snapshot returns the current record text plus the option lists the UI needs.
func (b *Builder) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	districts := make([]string, len(b.districts))
	copy(districts, b.districts)
	return Snapshot{
		State:       b.state,
		District:    b.district,
		Rainfall:    b.rainfall,
		Groundwater: b.groundwater,
		Crop:        b.crop,
		Season:      b.season,
		Year:        b.year,
		Districts:   districts,
		States:      b.cat.States(),
		Years:       append([]string(nil), refdata.SupportedYears...),
		Seasons:     models.Seasons(),
		CropOptions: b.cat.Crops(b.season),
	}
}

// Build validates the record and parses the numeric fields. It reports every
// failing field at once.
func (b *Builder) Build() (models.FarmRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	problems := map[string]string{}
	if b.state == "" {
		problems["state"] = "required"
	}
	if b.district == "" {
		problems["district"] = "required"
	}
	if !b.cat.HasCrop(b.season, b.crop) {
		problems["crop"] = "not in the current season's catalog"
	}

	rainfall := parseNonNegative("rainfall", b.rainfall, problems)
	groundwater := parseNonNegative("groundwater", b.groundwater, problems)

	if len(problems) > 0 {
		return models.FarmRecord{}, &models.ValidationError{Problems: problems}
	}
	return models.FarmRecord{
		State:          b.state,
		District:       b.district,
		RainfallMm:     rainfall,
		GroundwaterBcm: groundwater,
		CropHistory:    b.crop,
		Season:         b.season,
		ReferenceYear:  b.year,
	}, nil
}

func parseNonNegative(name, text string, problems map[string]string) float64 {
	if text == "" {
		problems[name] = "required"
		return 0
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		problems[name] = "not a number"
		return 0
	}
	if v < 0 {
		problems[name] = "must be non-negative"
		return 0
	}
	return v
}

// Reset discards the record for a new prediction cycle.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = ""
	b.district = ""
	b.districts = []string{}
	b.rainfall = ""
	b.groundwater = ""
	b.season = models.SeasonMonsoon
	b.crop = b.cat.FirstCrop(models.SeasonMonsoon)
	b.year = refdata.DefaultYear
}

// ApplyScenario overwrites the record with a demo preset, keeping the builder
// invariants: the district list follows the preset's state, and the season
// follows the preset's crop.
func (b *Builder) ApplyScenario(rec models.FarmRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = rec.State
	b.districts = b.cat.Districts(rec.State)
	b.district = rec.District
	b.rainfall = strconv.FormatFloat(rec.RainfallMm, 'f', -1, 64)
	b.groundwater = strconv.FormatFloat(rec.GroundwaterBcm, 'f', -1, 64)
	if season, ok := b.cat.SeasonOf(rec.CropHistory); ok {
		b.season = season
		b.crop = rec.CropHistory
	}
}
