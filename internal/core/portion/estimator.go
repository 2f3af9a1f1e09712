// Package portion estimates food mass from names, bounding boxes and volumes.
package portion

import (
	"math"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

type Estimate struct {
	Grams      float64
	Confidence domain.ConfidenceBand
}

type Estimator struct {
	table *Table
}

func NewEstimator(table *Table) *Estimator {
	if table == nil {
		table = DefaultTable()
	}
	return &Estimator{table: table}
}

// Estimate converts a food name and optional boxes into grams. The plate box
// is the size reference: without it the default portion is used as is and
// confidence is low.
func (e *Estimator) Estimate(foodName string, itemBoxes []domain.Box, image domain.ImageSize, plate *domain.Box) Estimate {
	grams := e.table.DefaultGrams(foodName)
	confidence := domain.ConfidenceLow

	if plate != nil && plate.Valid() {
		plateArea := normalizedArea([]domain.Box{*plate}, image)
		itemArea := normalizedArea(itemBoxes, image)
		switch {
		case plateArea <= 0:
		case itemArea <= 0:
			confidence = domain.ConfidenceMedium
		default:
			grams *= sizeMultiplier(itemArea / plateArea)
			confidence = domain.ConfidenceHigh
		}
	}

	return Estimate{Grams: ClampGrams(math.Round(grams)), Confidence: confidence}
}

// FromVolume converts millilitres to grams through the density table.
func (e *Estimator) FromVolume(foodName string, ml float64) Estimate {
	if ml <= 0 || math.IsNaN(ml) || math.IsInf(ml, 0) {
		return e.Estimate(foodName, nil, domain.ImageSize{}, nil)
	}
	grams := ml * e.table.Density(foodName)
	return Estimate{Grams: ClampGrams(math.Round(grams)), Confidence: domain.ConfidenceMedium}
}

// EstimatePortions estimates every name in input order.
func (e *Estimator) EstimatePortions(names []string, boxes map[string][]domain.Box, image domain.ImageSize, plate *domain.Box) []domain.PortionEstimate {
	out := make([]domain.PortionEstimate, 0, len(names))
	for _, name := range names {
		est := e.Estimate(name, boxes[name], image, plate)
		out = append(out, domain.PortionEstimate{
			Name:       name,
			Grams:      est.Grams,
			Confidence: est.Confidence,
			FoodClass:  ClassifyFood(name),
		})
	}
	return out
}

// ClampGrams bounds a mass to the sane range for one food item.
func ClampGrams(g float64) float64 {
	if math.IsNaN(g) {
		return domain.MinItemGrams
	}
	return math.Min(domain.MaxItemGrams, math.Max(domain.MinItemGrams, g))
}

func sizeMultiplier(ratio float64) float64 {
	switch {
	case ratio < 0.07:
		return 0.75
	case ratio < 0.13:
		return 1.0
	case ratio < 0.25:
		return 1.25
	default:
		return 1.5
	}
}

// normalizedArea is the area of the axis-aligned bounds around all valid
// boxes, as a fraction of the image when its size is known.
func normalizedArea(boxes []domain.Box, image domain.ImageSize) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false
	for _, b := range boxes {
		if !b.Valid() {
			continue
		}
		found = true
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.W)
		maxY = math.Max(maxY, b.Y+b.H)
	}
	if !found {
		return 0
	}
	area := (maxX - minX) * (maxY - minY)
	if image.W > 0 && image.H > 0 {
		area /= image.W * image.H
	}
	return area
}
