// Package flags derives ingredient and nutrient risk flags from parsed
// nutrition facts.
package flags

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/textnorm"
)

const (
	CodeHFCS        = "hfcs"
	CodeRed40       = "red40"
	CodeYellow5     = "yellow5"
	CodeBlue1       = "blue1"
	CodeAspartame   = "aspartame"
	CodeSucralose   = "sucralose"
	CodeAcesulfame  = "acesulfame"
	CodeMSG         = "msg"
	CodeBHT         = "bht"
	CodeBHA         = "bha"
	CodeNitrites    = "nitrites"
	CodePhosphates  = "phosphates"
	CodeCarrageenan = "carrageenan"
	CodePalmOil     = "palm_oil"

	CodeHighSugar   = "high_sugar"
	CodeMedSugar    = "med_sugar"
	CodeHighSatFat  = "high_satfat"
	CodeHighSodium  = "high_sodium"
	CodeMedSodium   = "med_sodium"
	CodeHighCalorie = "high_calorie"
)

// Per-100 thresholds. Each band is inclusive at its lower bound.
const (
	HighSugarG    = 22.0
	MedSugarG     = 15.0
	HighSatFatG   = 5.0
	HighSodiumMg  = 600.0
	MedSodiumMg   = 400.0
	HighCalorieKc = 400.0
)

type ingredientRule struct {
	code     string
	severity domain.Severity
	reason   string
	patterns []*regexp.Regexp
}

// ingredientRules is evaluated in order; the order fixes output order.
var ingredientRules = []ingredientRule{
	newRule(CodeHFCS, domain.SeverityHigh, "contains high fructose corn syrup",
		`\bhigh[- ]?fructose corn syrup\b`,
		`\bhfcs\b`,
		`\bglucose[- ]fructose syrup\b`,
		`\bfructose[- ]glucose syrup\b`,
		`\bisoglucose\b`,
	),
	newRule(CodeRed40, domain.SeverityMed, "contains the artificial color Red 40",
		`\bred(?: no)? ?#? ?40\b`,
		`\ballura red\b`,
		`\be ?129\b`,
	),
	newRule(CodeYellow5, domain.SeverityMed, "contains the artificial color Yellow 5",
		`\byellow(?: no)? ?#? ?5\b`,
		`\btartrazine\b`,
		`\be ?102\b`,
	),
	newRule(CodeBlue1, domain.SeverityLow, "contains the artificial color Blue 1",
		`\bblue(?: no)? ?#? ?1\b`,
		`\bbrilliant blue\b`,
		`\be ?133\b`,
	),
	newRule(CodeAspartame, domain.SeverityMed, "contains the sweetener aspartame",
		`\baspartame\b`,
		`\bnutrasweet\b`,
		`\be ?951\b`,
	),
	newRule(CodeSucralose, domain.SeverityLow, "contains the sweetener sucralose",
		`\bsucralose\b`,
		`\bsplenda\b`,
		`\be ?955\b`,
	),
	newRule(CodeAcesulfame, domain.SeverityLow, "contains the sweetener acesulfame potassium",
		`\bacesulfame(?:[- ]?k| potassium)?\b`,
		`\bace[- ]?k\b`,
		`\be ?950\b`,
	),
	newRule(CodeMSG, domain.SeverityLow, "contains monosodium glutamate",
		`\bmonosodium glutamate\b`,
		`\bmsg\b`,
		`\be ?621\b`,
	),
	newRule(CodeBHT, domain.SeverityMed, "contains the preservative BHT",
		`\bbht\b`,
		`\bbutylated hydroxytoluene\b`,
		`\be ?321\b`,
	),
	newRule(CodeBHA, domain.SeverityHigh, "contains the preservative BHA",
		`\bbha\b`,
		`\bbutylated hydroxyanisole\b`,
		`\be ?320\b`,
	),
	newRule(CodeNitrites, domain.SeverityHigh, "contains added nitrites or nitrates",
		`\b(?:sodium|potassium) nitr[ia]te\b`,
		`\bnitrites?\b`,
		`\be ?25[0-2]\b`,
	),
	newRule(CodePhosphates, domain.SeverityLow, "contains added phosphates",
		`phosphates?\b`,
		`\bphosphoric acid\b`,
		`\be ?338\b`,
		`\be ?45[0-2]\b`,
	),
	newRule(CodeCarrageenan, domain.SeverityMed, "contains carrageenan",
		`\bcarrageenan\b`,
		`\be ?407a?\b`,
	),
	newRule(CodePalmOil, domain.SeverityLow, "contains palm oil",
		`\bpalm (?:kernel )?(?:oil|fat)\b`,
		`\bpalmoleine?\b`,
	),
}

func newRule(code string, severity domain.Severity, reason string, exprs ...string) ingredientRule {
	rule := ingredientRule{code: code, severity: severity, reason: reason}
	for _, expr := range exprs {
		rule.patterns = append(rule.patterns, regexp.MustCompile(expr))
	}
	return rule
}

var ingredientCleaner = strings.NewReplacer("(", " ", ")", " ", ".", "")

// NormalizeIngredients folds diacritics, drops parentheses and periods and
// collapses whitespace.
func NormalizeIngredients(text string) string {
	return textnorm.CollapseSpaces(ingredientCleaner.Replace(textnorm.Fold(text)))
}

// Evaluate returns ingredient flags followed by nutrient flags, unique by
// code in first-seen order.
func Evaluate(facts domain.ParsedNutritionFacts) []domain.Flag {
	out := IngredientFlags(facts.IngredientsText)
	out = append(out, NutrientFlags(facts.Per100)...)
	return Dedupe(out)
}

// IngredientFlags emits at most one flag per rule, however many synonyms hit.
func IngredientFlags(ingredients string) []domain.Flag {
	text := NormalizeIngredients(ingredients)
	if text == "" {
		return nil
	}
	var out []domain.Flag
	for _, rule := range ingredientRules {
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				out = append(out, domain.Flag{Code: rule.code, Severity: rule.severity, Reason: rule.reason})
				break
			}
		}
	}
	return out
}

// NutrientFlags applies per-100 thresholds. Sugar and sodium check the higher
// band first so a value lands in one band only.
func NutrientFlags(per100 domain.NutrientSet) []domain.Flag {
	var out []domain.Flag
	if v := per100.SugarG; v != nil {
		switch {
		case *v >= HighSugarG:
			out = append(out, nutrientFlag(CodeHighSugar, domain.SeverityHigh, "sugar", *v, "g"))
		case *v >= MedSugarG:
			out = append(out, nutrientFlag(CodeMedSugar, domain.SeverityMed, "sugar", *v, "g"))
		}
	}
	if v := per100.SatFatG; v != nil && *v >= HighSatFatG {
		out = append(out, nutrientFlag(CodeHighSatFat, domain.SeverityMed, "saturated fat", *v, "g"))
	}
	if v := per100.SodiumMg; v != nil {
		switch {
		case *v >= HighSodiumMg:
			out = append(out, nutrientFlag(CodeHighSodium, domain.SeverityMed, "sodium", *v, "mg"))
		case *v >= MedSodiumMg:
			out = append(out, nutrientFlag(CodeMedSodium, domain.SeverityLow, "sodium", *v, "mg"))
		}
	}
	if v := per100.EnergyKcal; v != nil && *v >= HighCalorieKc {
		out = append(out, nutrientFlag(CodeHighCalorie, domain.SeverityLow, "energy", *v, "kcal"))
	}
	return out
}

func nutrientFlag(code string, severity domain.Severity, nutrient string, value float64, unit string) domain.Flag {
	return domain.Flag{
		Code:     code,
		Severity: severity,
		Reason:   fmt.Sprintf("%s %s%s per 100", nutrient, strconv.FormatFloat(value, 'f', -1, 64), unit),
	}
}

// Dedupe drops flags whose code was already seen.
func Dedupe(in []domain.Flag) []domain.Flag {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Flag, 0, len(in))
	for _, flag := range in {
		if _, ok := seen[flag.Code]; ok {
			continue
		}
		seen[flag.Code] = struct{}{}
		out = append(out, flag)
	}
	return out
}
