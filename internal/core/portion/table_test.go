package portion

import (
	"testing"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

func TestDensityLookup(t *testing.T) {
	table := DefaultTable()
	cases := map[string]float64{
		"Olive Oil":           0.91, // explicit entry beats the oil keyword
		"sunflower oil":       0.92,
		"Orange juice":        1.02,
		"apple juices":        1.02,
		"whey protein powder": 0.45,
		"greek yogurt":        1.1,
		"yogurt":              1.05,
		"boiled potatoes":     0.7,
		"mystery substance":   0.7,
	}
	for name, want := range cases {
		if got := table.Density(name); got != want {
			t.Fatalf("Density(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestDefaultGramsPrefersMostSpecificMatch(t *testing.T) {
	table := DefaultTable()
	cases := map[string]float64{
		"grilled chicken breast": 170,
		"chicken":                150,
		"Chicken Wings":          90,
		"eggplant parmesan":      120,
		"unknown food":           100,
		"":                       100,
	}
	for name, want := range cases {
		if got := table.DefaultGrams(name); got != want {
			t.Fatalf("DefaultGrams(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLoadTableRejectsInvalidDocuments(t *testing.T) {
	if _, err := LoadTable([]byte("densities: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
	if _, err := LoadTable([]byte("default_density: 0.7\n")); err == nil {
		t.Fatalf("expected missing default_portion error")
	}
	if _, err := LoadTable([]byte("default_density: 0.7\ndefault_portion: 100\nportions:\n  rice: -1\n")); err == nil {
		t.Fatalf("expected negative portion error")
	}
}

func TestClassifyFood(t *testing.T) {
	cases := map[string]domain.FoodClass{
		"grilled chicken": domain.FoodClassProtein,
		"lettuce":         domain.FoodClassLeafy,
		"unknown food":    domain.FoodClassOther,
		"salmon":          domain.FoodClassProtein,
		"brown rice":      domain.FoodClassStarch,
		"broccoli":        domain.FoodClassVeg,
		"eggplant":        domain.FoodClassVeg,
		"chicken salad":   domain.FoodClassProtein,
		"pepperoni pizza": domain.FoodClassStarch,
		"baby spinach":    domain.FoodClassLeafy,
		"":                domain.FoodClassOther,
	}
	for name, want := range cases {
		if got := ClassifyFood(name); got != want {
			t.Fatalf("ClassifyFood(%q) = %q, want %q", name, got, want)
		}
	}
}
