package domain

import (
	"strings"
	"time"
)

type ReportKind string

const (
	ReportImage   ReportKind = "image"
	ReportLabel   ReportKind = "label"
	ReportBarcode ReportKind = "barcode"
)

// Report is the terminal artifact of one analysis request.
type Report struct {
	ID             string                `json:"id"`
	Kind           ReportKind            `json:"kind"`
	Barcode        string                `json:"barcode,omitempty"`
	ProductName    string                `json:"product_name,omitempty"`
	Brand          string                `json:"brand,omitempty"`
	Items          []DetectedItem        `json:"items"`
	Facts          *ParsedNutritionFacts `json:"facts,omitempty"`
	Flags          []Flag                `json:"flags"`
	Fallback       bool                  `json:"fallback,omitempty"`
	DegradedReason string                `json:"degraded_reason,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

type LegacyStatus string

const (
	LegacyOK          LegacyStatus = "ok"
	LegacyNoDetection LegacyStatus = "no_detection"
	LegacyNotFound    LegacyStatus = "not_found"
)

// LegacyReport is the flat shape older consumers read.
type LegacyReport struct {
	Status      LegacyStatus   `json:"status"`
	Barcode     string         `json:"barcode,omitempty"`
	ProductName string         `json:"product_name,omitempty"`
	Brand       string         `json:"brand,omitempty"`
	Items       []DetectedItem `json:"items"`
	Nutrition   *NutrientSet   `json:"nutrition,omitempty"`
	Ingredients string         `json:"ingredients,omitempty"`
	Flags       []Flag         `json:"flags"`
}

// DeriveLegacyStatus must stay in this exact order for older consumers.
func DeriveLegacyStatus(r Report) LegacyStatus {
	hasName := strings.TrimSpace(r.ProductName) != "" || len(r.Items) > 0
	hasHealth := len(r.Flags) > 0
	hasNutrition := r.Facts != nil && r.Facts.HasNutrition()

	if !hasName && !hasHealth && !hasNutrition {
		return LegacyNoDetection
	}
	// A barcode without any product data is no_detection; not_found needs
	// nutrition or flags from a product that carries no name.
	if strings.TrimSpace(r.Barcode) != "" && strings.TrimSpace(r.ProductName) == "" {
		return LegacyNotFound
	}
	return LegacyOK
}

func ToLegacy(r Report) LegacyReport {
	out := LegacyReport{
		Status:      DeriveLegacyStatus(r),
		Barcode:     r.Barcode,
		ProductName: r.ProductName,
		Brand:       r.Brand,
		Items:       r.Items,
		Flags:       r.Flags,
	}
	if out.Items == nil {
		out.Items = []DetectedItem{}
	}
	if out.Flags == nil {
		out.Flags = []Flag{}
	}
	if r.Facts != nil {
		if !r.Facts.Per100.IsEmpty() {
			per100 := r.Facts.Per100
			out.Nutrition = &per100
		}
		out.Ingredients = r.Facts.IngredientsText
	}
	return out
}
