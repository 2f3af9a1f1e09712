package domain

import "strings"

type DetectionSource string

const (
	SourceGPT     DetectionSource = "gpt"
	SourceVision  DetectionSource = "vision"
	SourceBarcode DetectionSource = "barcode"
	SourceLYF     DetectionSource = "lyf"
)

type DetectionMode string

const (
	ModeGPTOnly    DetectionMode = "GPT_ONLY"
	ModeGPTFirst   DetectionMode = "GPT_FIRST"
	ModeVisionOnly DetectionMode = "VISION_ONLY"
)

// ParseDetectionMode resolves a configured mode name. Unknown values fall
// back to GPT_FIRST.
func ParseDetectionMode(raw string) DetectionMode {
	switch DetectionMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case ModeGPTOnly:
		return ModeGPTOnly
	case ModeVisionOnly:
		return ModeVisionOnly
	default:
		return ModeGPTFirst
	}
}

const (
	MinItemGrams = 10.0
	MaxItemGrams = 600.0
)

// DetectedItem is the normalized output of detection routing.
type DetectedItem struct {
	Name       string          `json:"name"`
	Grams      float64         `json:"grams"`
	Confidence float64         `json:"confidence"`
	Source     DetectionSource `json:"source"`
}

// DetectionInput is what the router hands to a backend. Image and Text are
// both optional; a backend decides which one it can use.
type DetectionInput struct {
	Image    []byte
	MimeType string
	Text     string
}

func (in DetectionInput) IsEmpty() bool {
	return len(in.Image) == 0 && strings.TrimSpace(in.Text) == ""
}

// RawDetection is one backend label before filtering and portioning.
type RawDetection struct {
	Name            string   `json:"name"`
	Confidence      float64  `json:"confidence"`
	PortionEstimate *float64 `json:"portion_estimate,omitempty"`
}

// Candidate is a food match produced by a catalog or enrichment provider.
type Candidate struct {
	Name        string `json:"name"`
	ClassID     string `json:"class_id,omitempty"`
	BrandName   string `json:"brand_name,omitempty"`
	ProviderRef string `json:"provider_ref,omitempty"`
}

// Box is an axis-aligned bounding box in image pixels.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (b Box) Valid() bool {
	return b.W > 0 && b.H > 0
}

type ImageSize struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type ConfidenceBand string

const (
	ConfidenceLow    ConfidenceBand = "low"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceHigh   ConfidenceBand = "high"
)

type FoodClass string

const (
	FoodClassProtein FoodClass = "protein"
	FoodClassStarch  FoodClass = "starch"
	FoodClassVeg     FoodClass = "veg"
	FoodClassLeafy   FoodClass = "leafy"
	FoodClassOther   FoodClass = "other"
)

type PortionEstimate struct {
	Name       string         `json:"name"`
	Grams      float64        `json:"grams"`
	Confidence ConfidenceBand `json:"confidence"`
	FoodClass  FoodClass      `json:"food_class"`
}
