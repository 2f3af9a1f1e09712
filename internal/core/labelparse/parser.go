// Package labelparse turns OCR text of a nutrition panel into structured
// per-100 and per-serving facts.
package labelparse

import (
	"regexp"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/textnorm"
)

const per100Marker = "per 100"

var (
	servingParenRe = regexp.MustCompile(`\(((\d+(?:[.,]\d+)?)\s*(g|ml))\)`)
	servingWordRe  = regexp.MustCompile(`serving[^0-9]{0,24}((\d+(?:[.,]\d+)?)\s*(g|ml))\b`)
	ingredientsRe  = regexp.MustCompile(`ingredients?\s*:\s*(.+)$`)

	textReplacer = strings.NewReplacer(
		"\u00a0", " ",
		"\u202f", " ",
		"\uff0c", ",",
		"\u3001", ",",
	)
)

// Parse extracts nutrition facts from an OCR text blob. Fields that cannot be
// read stay unset.
func Parse(ocrText string) domain.ParsedNutritionFacts {
	text := Normalize(ocrText)
	if text == "" {
		return domain.ParsedNutritionFacts{}
	}

	facts := domain.ParsedNutritionFacts{
		Per100:          extractPer100(per100Scope(text)),
		IngredientsText: extractIngredients(text),
	}

	serving, ok := detectServing(text)
	if ok {
		facts.ServingSizeRaw = serving.raw
		facts.ServingIsVolume = serving.volume
		if !serving.volume {
			facts.PerServing = DerivePerServing(facts.Per100, serving.amount)
		}
	}
	return facts
}

// Normalize lowercases text, maps non-breaking spaces and CJK commas to their
// ASCII forms and collapses whitespace.
func Normalize(text string) string {
	return textnorm.CollapseSpaces(strings.ToLower(textReplacer.Replace(text)))
}

type serving struct {
	raw    string
	amount float64
	volume bool
}

func detectServing(text string) (serving, bool) {
	for _, re := range []*regexp.Regexp{servingParenRe, servingWordRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, ok := parseNumber(m[2])
		if !ok || amount <= 0 {
			continue
		}
		return serving{raw: m[1], amount: amount, volume: m[3] == "ml"}, true
	}
	return serving{}, false
}

// per100Scope returns the text between the first "per 100" marker and the
// ingredients list. Labels without the marker have no per-100 scope.
func per100Scope(text string) string {
	idx := strings.Index(text, per100Marker)
	if idx < 0 {
		return ""
	}
	scope := text[idx+len(per100Marker):]
	if cut := strings.Index(scope, "ingredient"); cut >= 0 {
		scope = scope[:cut]
	}
	return scope
}

func extractIngredients(text string) string {
	m := ingredientsRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(m[1], ". "))
}
