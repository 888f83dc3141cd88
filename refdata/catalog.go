// Package refdata holds the read-only reference datasets (locations,
// rainfall, groundwater recharge, market prices, seasonal crop lists) and the
// lookup logic over them. All tables ship inside the binary and are loaded
// once at startup; nothing here mutates after Load.
package refdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"

	"watersower/models"
)

//go:embed data/*.json
var dataFS embed.FS

// SupportedYears is the fixed set of reference years the environmental
// datasets cover.
var SupportedYears = []string{"2025", "2024", "2023"}

// DefaultYear is the reference year a fresh record starts with.
const DefaultYear = "2025"

// CropOption is one entry of a season's crop catalog.
type CropOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CropPrice is one entry of the market price catalog. Prices are per quintal.
type CropPrice struct {
	MarketAvg float64      `json:"market_avg"`
	MSP       *float64     `json:"msp,omitempty"`
	Trend     models.Trend `json:"trend"`
}

type seasonCatalog struct {
	Label string       `json:"label"`
	Crops []CropOption `json:"crops"`
}

// Catalog bundles all reference datasets behind lookup accessors.
type Catalog struct {
	districts   map[string][]string
	rainfall    map[string]map[string]float64 // year -> dataset key -> mm
	groundwater map[string]map[string]float64 // year -> dataset key -> BCM
	prices      map[string]CropPrice
	priceOrder  []string
	seasons     map[models.Season]seasonCatalog
	states      []string
}

// Load parses the embedded datasets. A failure here is a build defect and is
// fatal at boot.
func Load() (*Catalog, error) {
	c := &Catalog{}

	if err := readJSON("data/locations.json", &c.districts); err != nil {
		return nil, err
	}

	var rf struct {
		Data map[string]map[string]float64 `json:"rainfall_data"`
	}
	if err := readJSON("data/rainfall_data.json", &rf); err != nil {
		return nil, err
	}
	c.rainfall = rf.Data

	var gw struct {
		Data map[string]map[string]float64 `json:"groundwater_recharge_bcm"`
	}
	if err := readJSON("data/groundwater_data.json", &gw); err != nil {
		return nil, err
	}
	c.groundwater = gw.Data

	var pr struct {
		Prices map[string]CropPrice `json:"market_prices"`
	}
	if err := readJSON("data/crop_prices.json", &pr); err != nil {
		return nil, err
	}
	c.prices = pr.Prices
	c.priceOrder = make([]string, 0, len(c.prices))
	for crop := range c.prices {
		c.priceOrder = append(c.priceOrder, crop)
	}
	sort.Strings(c.priceOrder)

	if err := readJSON("data/seasonal_crops.json", &c.seasons); err != nil {
		return nil, err
	}
	for _, s := range models.Seasons() {
		sc, ok := c.seasons[s]
		if !ok || len(sc.Crops) == 0 {
			return nil, fmt.Errorf("refdata: season %q has no crop catalog", s)
		}
	}

	c.states = make([]string, 0, len(c.districts))
	for s := range c.districts {
		c.states = append(c.states, s)
	}
	sort.Strings(c.states)

	return c, nil
}

func readJSON(name string, v any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("refdata: read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("refdata: parse %s: %w", name, err)
	}
	return nil
}

// States returns all known state names, sorted.
func (c *Catalog) States() []string {
	out := make([]string, len(c.states))
	copy(out, c.states)
	return out
}

// Districts returns the sorted district list for a state. Unknown states get
// an empty list, not an error.
func (c *Catalog) Districts(state string) []string {
	ds, ok := c.districts[state]
	if !ok {
		return []string{}
	}
	out := make([]string, len(ds))
	copy(out, ds)
	sort.Strings(out)
	return out
}

// Crops returns the crop catalog for a season.
func (c *Catalog) Crops(season models.Season) []CropOption {
	sc := c.seasons[season]
	out := make([]CropOption, len(sc.Crops))
	copy(out, sc.Crops)
	return out
}

// SeasonLabel returns the display label for a season (e.g. "Kharif (Monsoon)").
func (c *Catalog) SeasonLabel(season models.Season) string {
	return c.seasons[season].Label
}

// FirstCrop returns the first catalog crop for a season.
func (c *Catalog) FirstCrop(season models.Season) string {
	sc := c.seasons[season]
	if len(sc.Crops) == 0 {
		return ""
	}
	return sc.Crops[0].Value
}

// HasCrop reports whether crop belongs to the season's catalog.
func (c *Catalog) HasCrop(season models.Season, crop string) bool {
	for _, opt := range c.seasons[season].Crops {
		if opt.Value == crop {
			return true
		}
	}
	return false
}

// SeasonOf returns the season whose catalog contains crop.
func (c *Catalog) SeasonOf(crop string) (models.Season, bool) {
	for _, s := range models.Seasons() {
		if c.HasCrop(s, crop) {
			return s, true
		}
	}
	return "", false
}

// Price looks up the market price entry for a crop.
func (c *Catalog) Price(crop string) (CropPrice, bool) {
	p, ok := c.prices[crop]
	return p, ok
}

// PriceCrops returns all price catalog keys in stable (sorted) order.
func (c *Catalog) PriceCrops() []string {
	out := make([]string, len(c.priceOrder))
	copy(out, c.priceOrder)
	return out
}

// YearSupported reports whether year is in the supported set.
func YearSupported(year string) bool {
	for _, y := range SupportedYears {
		if y == year {
			return true
		}
	}
	return false
}
