package flags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

type Goal string

const (
	GoalWeightLoss  Goal = "weight_loss"
	GoalDiabetes    Goal = "diabetes"
	GoalHeartHealth Goal = "heart_health"
	GoalMuscleGain  Goal = "muscle_gain"
)

// ExplainContext carries the user-facing details interpolated into copy.
// Count is how many logged items share the flag, Grams the logged portion.
type ExplainContext struct {
	Count int
	Grams float64
	Goal  Goal
}

var explanations = map[string]string{
	CodeHFCS:        "High fructose corn syrup is a concentrated added sugar.",
	CodeRed40:       "Red 40 is a synthetic dye some people prefer to avoid.",
	CodeYellow5:     "Yellow 5 (tartrazine) is a synthetic dye linked to sensitivities.",
	CodeBlue1:       "Blue 1 is a synthetic dye.",
	CodeAspartame:   "Aspartame is an artificial sweetener.",
	CodeSucralose:   "Sucralose is an artificial sweetener.",
	CodeAcesulfame:  "Acesulfame K is an artificial sweetener.",
	CodeMSG:         "MSG is a flavor enhancer some people are sensitive to.",
	CodeBHT:         "BHT is a synthetic antioxidant preservative.",
	CodeBHA:         "BHA is a synthetic preservative under regulatory review.",
	CodeNitrites:    "Nitrites are curing agents common in processed meat.",
	CodePhosphates:  "Added phosphates raise total phosphorus intake.",
	CodeCarrageenan: "Carrageenan is a seaweed-based thickener.",
	CodePalmOil:     "Palm oil is high in saturated fat.",
	CodeHighSugar:   "This is high in sugar.",
	CodeMedSugar:    "This has a moderate amount of sugar.",
	CodeHighSatFat:  "This is high in saturated fat.",
	CodeHighSodium:  "This is high in sodium.",
	CodeMedSodium:   "This has a moderate amount of sodium.",
	CodeHighCalorie: "This is energy dense.",
}

var goalTips = map[Goal]struct {
	codes []string
	tip   string
}{
	GoalWeightLoss: {
		codes: []string{CodeHighCalorie, CodeHighSugar, CodeMedSugar, CodeHFCS},
		tip:   "It can make a calorie deficit harder to keep.",
	},
	GoalDiabetes: {
		codes: []string{CodeHighSugar, CodeMedSugar, CodeHFCS},
		tip:   "Sugars like this can spike blood glucose.",
	},
	GoalHeartHealth: {
		codes: []string{CodeHighSodium, CodeMedSodium, CodeHighSatFat, CodePalmOil},
		tip:   "Sodium and saturated fat matter for blood pressure and cholesterol.",
	},
	GoalMuscleGain: {
		codes: []string{CodeHighSugar, CodeHFCS},
		tip:   "Pair it with a protein source to support your training.",
	},
}

// Explain renders user-facing copy for a flag. It never affects which flags
// are raised.
func Explain(flag domain.Flag, ec ExplainContext) string {
	parts := make([]string, 0, 4)
	base, ok := explanations[flag.Code]
	if !ok {
		base = "This item was flagged."
		if reason := upperFirst(flag.Reason); reason != "" {
			base = reason + "."
		}
	}
	parts = append(parts, base)

	if ec.Grams > 0 {
		parts = append(parts, fmt.Sprintf("Your portion is about %s g.", strconv.FormatFloat(ec.Grams, 'f', 0, 64)))
	}
	switch {
	case ec.Count == 1:
		parts = append(parts, "It shows up once in today's log.")
	case ec.Count > 1:
		parts = append(parts, fmt.Sprintf("It shows up %d times in today's log.", ec.Count))
	}
	if tip, ok := goalTips[ec.Goal]; ok {
		for _, code := range tip.codes {
			if code == flag.Code {
				parts = append(parts, tip.tip)
				break
			}
		}
	}
	return strings.Join(parts, " ")
}

func upperFirst(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
