package analysis

import (
	"context"
	"fmt"

	"finance-advisor/api/llm"
	"finance-advisor/api/models"
)

// SpendingRating runs the spending-rating stage ad hoc: prompt, generate,
// typed extraction. Used by Run and by the read-only analysis endpoint.
func (o *Orchestrator) SpendingRating(ctx context.Context, payload any) (*models.SpendAnalysis, error) {
	raw, err := o.generate(ctx, llm.PurposeSpendingRating, payload)
	if err != nil {
		return nil, err
	}

	var result models.SpendAnalysis
	if err := llm.ExtractInto(raw, &result); err != nil {
		return nil, err
	}
	if result.Rating < 0 || result.Rating > 100 {
		return nil, fmt.Errorf("%w: rating %d out of range", llm.ErrShapeMismatch, result.Rating)
	}
	if len(result.Analysis) == 0 {
		return nil, fmt.Errorf("%w: no analysis insights", llm.ErrShapeMismatch)
	}
	return &result, nil
}

// goals runs a goal-generation stage against the resolved spending analysis.
func (o *Orchestrator) goals(ctx context.Context, purpose llm.Purpose, spendAnalysis *models.SpendAnalysis) ([]string, error) {
	raw, err := o.generate(ctx, purpose, spendAnalysis)
	if err != nil {
		return nil, err
	}

	var result struct {
		Longterm  []string `json:"longterm_goals"`
		Shortterm []string `json:"shortterm_goals"`
	}
	if err := llm.ExtractInto(raw, &result); err != nil {
		return nil, err
	}

	goals := result.Longterm
	if purpose == llm.PurposeShorttermGoals {
		goals = result.Shortterm
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("%w: no goals in response", llm.ErrShapeMismatch)
	}
	return goals, nil
}

// habits runs a habit stage: generate, ordered extraction, normalization.
// A normalizer that collected nothing produces an error record; unless the
// orchestrator is configured to keep those, the stage fails so the merge
// retains the prior stored list.
func (o *Orchestrator) habits(ctx context.Context, purpose llm.Purpose, payload any) ([]models.Recommendation, error) {
	raw, err := o.generate(ctx, purpose, payload)
	if err != nil {
		return nil, err
	}

	parsed, err := llm.ExtractObject(raw)
	if err != nil {
		return nil, err
	}

	var recs []models.Recommendation
	if purpose == llm.PurposeGoodHabits {
		recs = llm.NormalizeGoodHabits(parsed)
	} else {
		recs = llm.NormalizeBadHabits(parsed)
	}

	if llm.IsErrorRecord(recs) && !o.keepErrorPayloads {
		return nil, fmt.Errorf("%w: response contained no recommendations", llm.ErrShapeMismatch)
	}
	return recs, nil
}

// IdealSpending runs the recovered 50/30/20 budget-allocation analysis ad
// hoc and returns the service's suggestion as-is. Nothing is persisted.
func (o *Orchestrator) IdealSpending(ctx context.Context, payload any) (map[string]any, error) {
	raw, err := o.generate(ctx, llm.PurposeIdealSpending, payload)
	if err != nil {
		return nil, err
	}

	parsed, err := llm.ExtractObject(raw)
	if err != nil {
		return nil, err
	}
	return llm.Plain(parsed).(map[string]any), nil
}

func (o *Orchestrator) generate(ctx context.Context, purpose llm.Purpose, payload any) (string, error) {
	prompt := llm.BuildPrompt(purpose, payload)
	return o.gen.Generate(ctx, prompt, llm.OptionsFor(purpose))
}
