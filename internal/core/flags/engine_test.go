package flags

import (
	"strings"
	"testing"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

func TestEvaluateHFCSEmitsSingleHighFlag(t *testing.T) {
	facts := domain.ParsedNutritionFacts{
		IngredientsText: "Carbonated water, High Fructose Corn Syrup (HFCS), glucose-fructose syrup, caramel color",
	}
	got := Evaluate(facts)

	count := 0
	for _, flag := range got {
		if flag.Code == CodeHFCS {
			count++
			if flag.Severity != domain.SeverityHigh {
				t.Fatalf("expected high severity, got %q", flag.Severity)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one hfcs flag, got %d in %+v", count, got)
	}
}

func TestIngredientFlagsMatchSynonyms(t *testing.T) {
	cases := []struct {
		text string
		code string
	}{
		{text: "sugar, FD&C Red No. 40", code: CodeRed40},
		{text: "colour (E129)", code: CodeRed40},
		{text: "tartrazine", code: CodeYellow5},
		{text: "Brilliant Blue FCF", code: CodeBlue1},
		{text: "sugar, FD&C Yellow #5, Blue #1, Red #40", code: CodeYellow5},
		{text: "sugar, FD&C Yellow #5, Blue #1, Red #40", code: CodeBlue1},
		{text: "sugar, FD&C Yellow #5, Blue #1, Red #40", code: CodeRed40},
		{text: "Red #40 Lake", code: CodeRed40},
		{text: "sweetener: aspartame", code: CodeAspartame},
		{text: "sweeteners (sucralose, acesulfame K)", code: CodeSucralose},
		{text: "sweeteners (sucralose, acesulfame K)", code: CodeAcesulfame},
		{text: "flavour enhancer E621", code: CodeMSG},
		{text: "antioxidant (BHT)", code: CodeBHT},
		{text: "butylated hydroxyanisole", code: CodeBHA},
		{text: "pork, salt, sodium nitrite", code: CodeNitrites},
		{text: "sodium tripolyphosphate, diphosphates", code: CodePhosphates},
		{text: "thickener (carrageenan)", code: CodeCarrageenan},
		{text: "vegetable fats (palm oil, shea)", code: CodePalmOil},
		{text: "huile de palme, palmoléine", code: CodePalmOil},
	}
	for _, tc := range cases {
		t.Run(tc.code+"/"+tc.text, func(t *testing.T) {
			if !hasCode(IngredientFlags(tc.text), tc.code) {
				t.Fatalf("expected %s for %q", tc.code, tc.text)
			}
		})
	}
}

func TestIngredientFlagsIgnoreLookalikes(t *testing.T) {
	got := IngredientFlags("blueberries, red pepper, palm sugar, corn syrup, whole wheat flour")
	if len(got) != 0 {
		t.Fatalf("expected no flags, got %+v", got)
	}
}

func TestNutrientFlagsThresholdBands(t *testing.T) {
	cases := []struct {
		name   string
		per100 domain.NutrientSet
		want   []string
	}{
		{name: "empty", per100: domain.NutrientSet{}, want: nil},
		{name: "sugar 22 is high", per100: domain.NutrientSet{SugarG: domain.Float(22)}, want: []string{CodeHighSugar}},
		{name: "sugar 15 is med", per100: domain.NutrientSet{SugarG: domain.Float(15)}, want: []string{CodeMedSugar}},
		{name: "sugar 14.9 is clear", per100: domain.NutrientSet{SugarG: domain.Float(14.9)}, want: nil},
		{name: "satfat 5", per100: domain.NutrientSet{SatFatG: domain.Float(5)}, want: []string{CodeHighSatFat}},
		{name: "sodium 600 is high", per100: domain.NutrientSet{SodiumMg: domain.Float(600)}, want: []string{CodeHighSodium}},
		{name: "sodium 400 is med", per100: domain.NutrientSet{SodiumMg: domain.Float(400)}, want: []string{CodeMedSodium}},
		{name: "energy 400", per100: domain.NutrientSet{EnergyKcal: domain.Float(400)}, want: []string{CodeHighCalorie}},
		{
			name: "all bands in order",
			per100: domain.NutrientSet{
				EnergyKcal: domain.Float(520),
				SugarG:     domain.Float(40),
				SatFatG:    domain.Float(12),
				SodiumMg:   domain.Float(450),
			},
			want: []string{CodeHighSugar, CodeHighSatFat, CodeMedSodium, CodeHighCalorie},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := codes(NutrientFlags(tc.per100))
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Fatalf("NutrientFlags() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNutrientFlagReasonCarriesValue(t *testing.T) {
	got := NutrientFlags(domain.NutrientSet{SodiumMg: domain.Float(650)})
	if len(got) != 1 || got[0].Reason != "sodium 650mg per 100" {
		t.Fatalf("unexpected flags %+v", got)
	}
}

func TestEvaluateNeverRepeatsCodes(t *testing.T) {
	facts := domain.ParsedNutritionFacts{
		IngredientsText: "HFCS, high fructose corn syrup, aspartame, E951, palm oil, palm kernel fat",
		Per100:          domain.NutrientSet{SugarG: domain.Float(30), SodiumMg: domain.Float(700)},
	}
	got := codes(Evaluate(facts))
	want := []string{CodeHFCS, CodeAspartame, CodePalmOil, CodeHighSugar, CodeHighSodium}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Evaluate() = %v, want %v", got, want)
	}
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	got := Dedupe([]domain.Flag{
		{Code: "a", Reason: "first"},
		{Code: "b"},
		{Code: "a", Reason: "second"},
	})
	if len(got) != 2 || got[0].Reason != "first" || got[1].Code != "b" {
		t.Fatalf("unexpected dedupe result %+v", got)
	}
}

func hasCode(flags []domain.Flag, code string) bool {
	for _, flag := range flags {
		if flag.Code == code {
			return true
		}
	}
	return false
}

func codes(flags []domain.Flag) []string {
	var out []string
	for _, flag := range flags {
		out = append(out, flag.Code)
	}
	return out
}
