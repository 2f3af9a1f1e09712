package domain

// NutrientSet holds optional nutrient values. A nil field means the value was
// not observed; it is never defaulted to zero.
type NutrientSet struct {
	EnergyKcal *float64 `json:"energy_kcal,omitempty"`
	ProteinG   *float64 `json:"protein_g,omitempty"`
	CarbsG     *float64 `json:"carbs_g,omitempty"`
	SugarG     *float64 `json:"sugar_g,omitempty"`
	FatG       *float64 `json:"fat_g,omitempty"`
	SatFatG    *float64 `json:"satfat_g,omitempty"`
	FiberG     *float64 `json:"fiber_g,omitempty"`
	SodiumMg   *float64 `json:"sodium_mg,omitempty"`
}

func (n NutrientSet) IsEmpty() bool {
	for _, v := range n.fields() {
		if *v != nil {
			return false
		}
	}
	return true
}

// Map applies fn to every observed value and leaves absent values absent.
func (n NutrientSet) Map(fn func(float64) float64) NutrientSet {
	out := n
	for _, v := range out.fields() {
		if *v != nil {
			*v = Float(fn(**v))
		}
	}
	return out
}

func (n *NutrientSet) fields() []**float64 {
	return []**float64{
		&n.EnergyKcal, &n.ProteinG, &n.CarbsG, &n.SugarG,
		&n.FatG, &n.SatFatG, &n.FiberG, &n.SodiumMg,
	}
}

type ParsedNutritionFacts struct {
	Per100          NutrientSet `json:"per100"`
	PerServing      NutrientSet `json:"per_serving"`
	ServingSizeRaw  string      `json:"serving_size_raw,omitempty"`
	ServingIsVolume bool        `json:"serving_is_volume,omitempty"`
	IngredientsText string      `json:"ingredients_text,omitempty"`
}

func (f ParsedNutritionFacts) HasNutrition() bool {
	return !f.Per100.IsEmpty() || !f.PerServing.IsEmpty()
}

type Severity string

const (
	SeverityLow  Severity = "low"
	SeverityMed  Severity = "med"
	SeverityHigh Severity = "high"
)

type Flag struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
}

// Product is a barcode lookup result already normalized by its adapter.
type Product struct {
	Code            string      `json:"code"`
	Name            string      `json:"name"`
	Brand           string      `json:"brand,omitempty"`
	Nutrition       NutrientSet `json:"nutrition"`
	IngredientsText string      `json:"ingredients_text,omitempty"`
	ServingSizeRaw  string      `json:"serving_size_raw,omitempty"`
	ServingGrams    *float64    `json:"serving_grams,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
