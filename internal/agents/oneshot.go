package agents

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/KaramelBytes/medflow-cli/internal/ai"
	"github.com/KaramelBytes/medflow-cli/internal/analysis"
	"github.com/KaramelBytes/medflow-cli/internal/utils"
)

// InsightRequest asks for one non-obvious observation about the full summary.
func InsightRequest(model, summaryJSON string) ai.GenerateRequest {
	if model == "" {
		model = FlashModel
	}
	prompt := fmt.Sprintf(`Give me one "Wow" insight about this dataset that isn't immediately obvious. `+
		`Focus on supplier concentration or unusual category pairings. Max 1 sentence. Data: %s`, summaryJSON)
	return ai.Prompt(model, "You are an insightful data scientist.", prompt, 0.7, 100)
}

// PredictionRequest asks for a brief next-month outlook from the category
// breakdown.
func PredictionRequest(model, topCategoriesJSON string) ai.GenerateRequest {
	if model == "" {
		model = FlashModel
	}
	prompt := fmt.Sprintf("Based on this medical supply data summary, predict the next month's potential volume trend "+
		"and identify one category likely to surge. Keep it very brief (max 50 words). Data: %s", topCategoriesJSON)
	return ai.Prompt(model, "You are a predictive analytics engine.", prompt, 0.2, 200)
}

// InsightFor builds the insight request for a summary.
func InsightFor(model string, s *analysis.Summary) (ai.GenerateRequest, error) {
	data, err := utils.CompactJSON(s)
	if err != nil {
		return ai.GenerateRequest{}, errors.Wrap(err, "serialize summary")
	}
	return InsightRequest(model, data), nil
}

// PredictionFor builds the prediction request for a summary.
func PredictionFor(model string, s *analysis.Summary) (ai.GenerateRequest, error) {
	data, err := utils.CompactJSON(s.TopCategories)
	if err != nil {
		return ai.GenerateRequest{}, errors.Wrap(err, "serialize categories")
	}
	return PredictionRequest(model, data), nil
}

// Ask sends one request and returns its text.
func Ask(ctx context.Context, rt ai.Runtime, req ai.GenerateRequest) (string, error) {
	if rt == nil {
		return "", ErrNoRuntime
	}
	resp, err := rt.Generate(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "generate")
	}
	return textOrDefault(resp), nil
}
