package labelparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

// kjPerKcal converts kilojoules to kilocalories.
const kjPerKcal = 4.184

// SaltSodiumRatio is the sodium share of table salt by mass.
const SaltSodiumRatio = 0.4

// A keyword may be separated from its value by at most lookaheadWindow
// non-digit characters, and only the first number after it counts.
const lookaheadWindow = 24

const number = `(\d+(?:[.,]\d+)?)`

var (
	kcalRe     = regexp.MustCompile(number + `\s*kcal\b`)
	caloriesRe = nutrientRe(`(?:calories|energy)`, `(kj|kcal|cal)?`)
	kjRe       = regexp.MustCompile(number + `\s*kj\b`)
	proteinRe  = nutrientRe(`\bprotein`, `g\b`)
	carbsRe    = nutrientRe(`\b(?:total carbohydrates?|carbohydrates?|carbs?)\b`, `g\b`)
	sugarRe    = nutrientRe(`\b(?:total sugars?|sugars?)\b`, `g\b`)
	fatRe      = nutrientRe(`\b(?:total fat|fat)\b`, `g\b`)
	satFatRe   = nutrientRe(`\b(?:saturated fat|saturates|saturated|sat\.? fat)`, `g\b`)
	fiberRe    = nutrientRe(`\b(?:dietary fib(?:er|re)|fib(?:er|re))`, `g\b`)
	sodiumMgRe = nutrientRe(`sodium`, `mg\b`)
	sodiumGRe  = nutrientRe(`sodium`, `g\b`)
	saltRe     = nutrientRe(`\bsalt`, `g\b`)
)

// Words that turn a following "fat" into a different nutrient.
var fatQualifiers = map[string]struct{}{
	"saturated":       {},
	"sat":             {},
	"sat.":            {},
	"trans":           {},
	"unsaturated":     {},
	"monounsaturated": {},
	"polyunsaturated": {},
}

func nutrientRe(keyword, unit string) *regexp.Regexp {
	return regexp.MustCompile(keyword + `[^0-9]{0,` + strconv.Itoa(lookaheadWindow) + `}` + number + `\s*` + unit)
}

func extractPer100(scope string) domain.NutrientSet {
	var set domain.NutrientSet
	if strings.TrimSpace(scope) == "" {
		return set
	}
	set.EnergyKcal = optional(extractEnergy(scope))
	set.ProteinG = optional(firstValue(proteinRe, scope))
	set.CarbsG = optional(firstValue(carbsRe, scope))
	set.SugarG = optional(firstValue(sugarRe, scope))
	set.FatG = optional(extractFat(scope))
	set.SatFatG = optional(firstValue(satFatRe, scope))
	set.FiberG = optional(firstValue(fiberRe, scope))
	set.SodiumMg = ResolveSodium(
		optional(firstValue(sodiumMgRe, scope)),
		optional(firstValue(sodiumGRe, scope)),
		optional(firstValue(saltRe, scope)),
	)
	return set
}

// extractEnergy prefers an explicit kcal value, then a unitless calories or
// energy value, then kJ converted to kcal.
func extractEnergy(scope string) (float64, bool) {
	if v, ok := firstValue(kcalRe, scope); ok {
		return v, true
	}
	for _, m := range caloriesRe.FindAllStringSubmatch(scope, -1) {
		if m[2] == "kj" {
			continue
		}
		if v, ok := parseNumber(m[1]); ok {
			return v, true
		}
	}
	if kj, ok := firstValue(kjRe, scope); ok {
		return Round(kj / kjPerKcal), true
	}
	return 0, false
}

// extractFat skips matches that belong to saturated, trans or unsaturated fat.
func extractFat(scope string) (float64, bool) {
	for _, loc := range fatRe.FindAllStringSubmatchIndex(scope, -1) {
		if _, qualified := fatQualifiers[lastWord(scope[:loc[0]])]; qualified {
			continue
		}
		if v, ok := parseNumber(scope[loc[2]:loc[3]]); ok {
			return v, true
		}
	}
	return 0, false
}

func firstValue(re *regexp.Regexp, scope string) (float64, bool) {
	m := re.FindStringSubmatch(scope)
	if m == nil {
		return 0, false
	}
	return parseNumber(m[1])
}

// ResolveSodium picks sodium in mg by priority: explicit mg, then explicit g,
// then salt g times SaltSodiumRatio.
func ResolveSodium(sodiumMg, sodiumG, saltG *float64) *float64 {
	switch {
	case sodiumMg != nil:
		return domain.Float(Round(*sodiumMg))
	case sodiumG != nil:
		return domain.Float(Round(*sodiumG * 1000))
	case saltG != nil:
		return domain.Float(Round(*saltG * SaltSodiumRatio * 1000))
	default:
		return nil
	}
}

// DerivePerServing scales per-100 values to a serving mass in grams. A
// non-positive serving yields an empty set.
func DerivePerServing(per100 domain.NutrientSet, servingGrams float64) domain.NutrientSet {
	if servingGrams <= 0 || math.IsNaN(servingGrams) || math.IsInf(servingGrams, 0) {
		return domain.NutrientSet{}
	}
	return per100.Map(func(v float64) float64 {
		return Round(v * servingGrams / 100)
	})
}

// Round keeps no decimals for values of 50 and above and two decimals below.
func Round(v float64) float64 {
	if v >= 50 {
		return math.Round(v)
	}
	return math.Round(v*100) / 100
}

// parseNumber accepts "12", "12.5" and "12,5". A comma followed by exactly
// three digits is a thousands separator ("1,200").
func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, ','); i >= 0 {
		if len(raw)-i-1 == 3 {
			raw = raw[:i] + raw[i+1:]
		} else {
			raw = raw[:i] + "." + raw[i+1:]
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return domain.Float(v)
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
