package flags

import (
	"testing"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

func TestExplainInterpolatesContext(t *testing.T) {
	flag := domain.Flag{Code: CodeHighSugar, Severity: domain.SeverityHigh, Reason: "sugar 39g per 100"}

	got := Explain(flag, ExplainContext{Count: 3, Grams: 330, Goal: GoalDiabetes})
	want := "This is high in sugar. Your portion is about 330 g. It shows up 3 times in today's log. " +
		"Sugars like this can spike blood glucose."
	if got != want {
		t.Fatalf("Explain() = %q, want %q", got, want)
	}
}

func TestExplainSkipsUnrelatedGoalTip(t *testing.T) {
	flag := domain.Flag{Code: CodeHighSodium}
	got := Explain(flag, ExplainContext{Count: 1, Goal: GoalDiabetes})
	want := "This is high in sodium. It shows up once in today's log."
	if got != want {
		t.Fatalf("Explain() = %q, want %q", got, want)
	}
}

func TestExplainFallsBackToReason(t *testing.T) {
	got := Explain(domain.Flag{Code: "custom", Reason: "contains something odd"}, ExplainContext{})
	if got != "Contains something odd." {
		t.Fatalf("unexpected fallback copy %q", got)
	}
	if got := Explain(domain.Flag{Code: "custom"}, ExplainContext{}); got != "This item was flagged." {
		t.Fatalf("unexpected empty-reason copy %q", got)
	}
}

func TestEveryRuleHasExplanation(t *testing.T) {
	for _, rule := range ingredientRules {
		if _, ok := explanations[rule.code]; !ok {
			t.Fatalf("missing explanation for %s", rule.code)
		}
	}
}
