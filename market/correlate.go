// Package market cross-references a prediction verdict's free-text
// suggestions against the crop price catalog to decide which market entries
// are worth showing.
package market

import (
	"strings"

	"watersower/models"
	"watersower/refdata"
)

// Correlate selects the market insights for a verdict: the declared crop
// first when the catalog prices it, then every catalog crop whose name
// appears inside a suggestion string, in suggestion order. Duplicates are
// suppressed; an empty result is nil so callers can skip the section
// entirely.
//
// Matching is plain substring containment over a finite crop vocabulary.
// That can false-positive when one crop name is contained in another or in
// unrelated text ("Ragi" in "Ragini Farms"); accepted as an approximation.
func Correlate(cat *refdata.Catalog, verdict models.PredictionVerdict, declaredCrop string) []models.MarketInsight {
	var out []models.MarketInsight
	seen := map[string]bool{}

	add := func(crop string, current bool) {
		if seen[crop] {
			return
		}
		price, ok := cat.Price(crop)
		if !ok {
			return
		}
		seen[crop] = true
		out = append(out, models.MarketInsight{
			Crop:      crop,
			MarketAvg: price.MarketAvg,
			MSP:       price.MSP,
			Trend:     price.Trend,
			IsCurrent: current,
		})
	}

	if declaredCrop != "" {
		add(declaredCrop, true)
	}
	catalogCrops := cat.PriceCrops()
	for _, suggestion := range verdict.Suggestions {
		for _, crop := range catalogCrops {
			if crop == declaredCrop {
				continue
			}
			if strings.Contains(suggestion, crop) {
				add(crop, false)
			}
		}
	}
	return out
}
