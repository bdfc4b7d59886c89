package llm

import "finance-advisor/api/models"

// MaxHabitRecommendations bounds the persisted habit lists.
const MaxHabitRecommendations = 4

// Top-level keys inspected per habit purpose, in selection order. Good-habit
// keys hold nested category objects whose sub-lists are walked in document
// order; bad-habit keys hold category lists directly.
var (
	goodHabitKeys = []string{"positiveSpendingOpportunities", "growthAreas"}
	badHabitKeys  = []string{"highImpactReductions", "debtOptimizations", "lifestyleAdjustments", "smartSubstitutions"}
)

// NormalizeGoodHabits reduces a good-habits response to at most four
// representative recommendations: the first element of every non-empty
// sub-list under each known top-level key, in encounter order. When nothing
// is collected it returns a single error record so callers can tell "no
// data produced" apart from an empty stage result.
func NormalizeGoodHabits(parsed *Object) []models.Recommendation {
	var selected []models.Recommendation
	for _, key := range goodHabitKeys {
		section, ok := parsed.Get(key)
		if !ok {
			continue
		}
		nested, ok := section.(*Object)
		if !ok {
			continue
		}
		for _, subKey := range nested.Keys() {
			v, _ := nested.Get(subKey)
			selected = appendFirst(selected, v)
		}
	}
	return capRecommendations(selected, "No positive habits identified.")
}

// NormalizeBadHabits is the bad-habits counterpart: each known top-level key
// is itself a category list, and the first element of each non-empty list is
// selected.
func NormalizeBadHabits(parsed *Object) []models.Recommendation {
	var selected []models.Recommendation
	for _, key := range badHabitKeys {
		v, ok := parsed.Get(key)
		if !ok {
			continue
		}
		selected = appendFirst(selected, v)
	}
	return capRecommendations(selected, "No negative habits identified.")
}

// IsErrorRecord reports whether recs is the single-element placeholder
// produced when a normalization collected nothing.
func IsErrorRecord(recs []models.Recommendation) bool {
	if len(recs) != 1 {
		return false
	}
	_, ok := recs[0]["error"]
	return ok
}

func appendFirst(selected []models.Recommendation, v any) []models.Recommendation {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return selected
	}
	first, ok := Plain(list[0]).(map[string]any)
	if !ok {
		return selected
	}
	return append(selected, models.Recommendation(first))
}

func capRecommendations(selected []models.Recommendation, emptyCause string) []models.Recommendation {
	if len(selected) == 0 {
		return []models.Recommendation{models.ErrorRecommendation(emptyCause)}
	}
	if len(selected) > MaxHabitRecommendations {
		selected = selected[:MaxHabitRecommendations]
	}
	return selected
}
