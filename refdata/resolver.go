package refdata

// DatasetKind selects which environmental dataset a Resolve call reads.
type DatasetKind string

const (
	DatasetRainfall    DatasetKind = "rainfall"
	DatasetGroundwater DatasetKind = "groundwater"
)

// Per-dataset display-name -> dataset-key tables. The source datasets drifted
// apart on administrative naming, and they disagree with each other (note the
// two Dadra & Nagar Haveli spellings), so each dataset keeps its own table
// rather than a unified key space. Mapping is exact-match only: a name not
// listed here is used as-is.
var rainfallAliases = map[string]string{
	"Andaman and Nicobar Islands":              "Andaman & Nicobar Islands",
	"Jammu and Kashmir":                        "Jammu & Kashmir",
	"Dadra and Nagar Haveli and Daman and Diu": "Daman & Diu and Dadra & Nagar Haveli",
}

var groundwaterAliases = map[string]string{
	"Andaman and Nicobar Islands":              "Andaman & Nicobar Islands",
	"Jammu and Kashmir":                        "Jammu & Kashmir",
	"Dadra and Nagar Haveli and Daman and Diu": "Dadra & Nagar Haveli and Daman & Diu",
}

// DatasetKey normalizes a state display name to kind's dataset key.
func DatasetKey(kind DatasetKind, state string) string {
	var aliases map[string]string
	switch kind {
	case DatasetRainfall:
		aliases = rainfallAliases
	case DatasetGroundwater:
		aliases = groundwaterAliases
	default:
		return state
	}
	if key, ok := aliases[state]; ok {
		return key
	}
	return state
}

// Resolve maps (dataset, state display name, year) to the stored numeric
// value. The second return is false when the year is outside the supported
// set or the state has no entry; callers leave their field untouched in that
// case. Pure lookup, no side effects.
func (c *Catalog) Resolve(kind DatasetKind, state, year string) (float64, bool) {
	var table map[string]map[string]float64
	switch kind {
	case DatasetRainfall:
		table = c.rainfall
	case DatasetGroundwater:
		table = c.groundwater
	default:
		return 0, false
	}
	byState, ok := table[year]
	if !ok {
		return 0, false
	}
	v, ok := byState[DatasetKey(kind, state)]
	return v, ok
}
