package openfoodfacts

import (
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/labelparse"
)

const kjPerKcal = 4.184

type productResponse struct {
	Code    string      `json:"code"`
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type searchResponse struct {
	Count    int          `json:"count"`
	Products []offProduct `json:"products"`
}

type offProduct struct {
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	ProductNameEn       string         `json:"product_name_en"`
	GenericName         string         `json:"generic_name"`
	Brands              string         `json:"brands"`
	CategoriesTags      []string       `json:"categories_tags"`
	Nutriments          map[string]any `json:"nutriments"`
	IngredientsText     string         `json:"ingredients_text"`
	IngredientsTextEn   string         `json:"ingredients_text_en"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     any            `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
}

func (p offProduct) name() string {
	for _, candidate := range []string{p.ProductName, p.ProductNameEn, p.GenericName} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name
		}
	}
	return ""
}

func (p offProduct) toDomain(barcode string) *domain.Product {
	code := p.Code
	if code == "" {
		code = barcode
	}
	ingredients := strings.TrimSpace(p.IngredientsTextEn)
	if ingredients == "" {
		ingredients = strings.TrimSpace(p.IngredientsText)
	}
	return &domain.Product{
		Code:            code,
		Name:            p.name(),
		Brand:           firstBrand(p.Brands),
		Nutrition:       nutrientsPer100(p.Nutriments),
		IngredientsText: ingredients,
		ServingSizeRaw:  strings.TrimSpace(p.ServingSize),
		ServingGrams:    p.servingGrams(),
	}
}

// servingGrams only reports mass servings. A volume serving is not
// converted.
func (p offProduct) servingGrams() *float64 {
	unit := strings.ToLower(strings.TrimSpace(p.ServingQuantityUnit))
	if unit != "" && unit != "g" {
		return nil
	}
	v, ok := toFloat(p.ServingQuantity)
	if !ok || v <= 0 {
		return nil
	}
	return &v
}

func nutrientsPer100(n map[string]any) domain.NutrientSet {
	return domain.NutrientSet{
		EnergyKcal: energyKcal(n),
		ProteinG:   lookup(n, "proteins_100g"),
		CarbsG:     lookup(n, "carbohydrates_100g"),
		SugarG:     lookup(n, "sugars_100g"),
		FatG:       lookup(n, "fat_100g"),
		SatFatG:    lookup(n, "saturated-fat_100g"),
		FiberG:     lookup(n, "fiber_100g"),
		SodiumMg:   labelparse.ResolveSodium(nil, lookup(n, "sodium_100g"), lookup(n, "salt_100g")),
	}
}

// energyKcal prefers the kcal field. energy_100g is kJ in the API.
func energyKcal(n map[string]any) *float64 {
	if v := lookup(n, "energy-kcal_100g"); v != nil {
		return v
	}
	for _, key := range []string{"energy-kj_100g", "energy_100g"} {
		if v := lookup(n, key); v != nil {
			return domain.Float(labelparse.Round(*v / kjPerKcal))
		}
	}
	return nil
}

func lookup(n map[string]any, key string) *float64 {
	v, ok := toFloat(n[key])
	if !ok || v < 0 {
		return nil
	}
	return &v
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v, ",", ".")), 64)
		if err != nil {
			return 0, false
		}
		return toFloat(f)
	default:
		return 0, false
	}
}
