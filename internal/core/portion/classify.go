package portion

import (
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

type classKeywords struct {
	class    domain.FoodClass
	keywords [][]string
}

// foodClasses is checked in priority order; the first class with a matching
// keyword wins.
var foodClasses = []classKeywords{
	{domain.FoodClassProtein, phrases(
		"chicken", "beef", "steak", "pork", "bacon", "ham", "sausage", "lamb", "turkey", "duck",
		"salmon", "tuna", "cod", "fish", "shrimp", "prawn", "egg", "omelette", "tofu", "tempeh",
		"seitan", "paneer", "lentil", "chickpea",
	)},
	{domain.FoodClassStarch, phrases(
		"rice", "pasta", "spaghetti", "noodle", "bread", "toast", "bagel", "tortilla", "potato",
		"fries", "quinoa", "couscous", "oat", "oatmeal", "cereal", "barley", "corn", "pizza",
	)},
	{domain.FoodClassVeg, phrases(
		"broccoli", "asparagus", "carrot", "cauliflower", "green bean", "pea", "tomato",
		"cucumber", "zucchini", "pepper", "mushroom", "eggplant", "onion",
		"beet", "squash", "celery", "brussels sprout",
	)},
	{domain.FoodClassLeafy, phrases(
		"lettuce", "spinach", "kale", "arugula", "rocket", "chard", "cabbage", "romaine",
		"collard", "greens", "salad",
	)},
}

// ClassifyFood annotates an estimate for display. It has no effect on grams.
func ClassifyFood(name string) domain.FoodClass {
	words := nameWords(name)
	if len(words) == 0 {
		return domain.FoodClassOther
	}
	for _, group := range foodClasses {
		for _, kw := range group.keywords {
			if containsPhrase(words, kw) {
				return group.class
			}
		}
	}
	return domain.FoodClassOther
}

func phrases(items ...string) [][]string {
	out := make([][]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.Fields(item))
	}
	return out
}
