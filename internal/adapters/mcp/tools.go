package mcpadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/core/flags"
	"github.com/kirillkom/nutrition-pipeline/internal/core/portion"
)

const (
	toolAnalyzeLabel        = "analyze_label"
	toolEvaluateIngredients = "evaluate_ingredients"
	toolEstimatePortion     = "estimate_portion"
)

type explainedFlag struct {
	domain.Flag
	Explanation string `json:"explanation"`
}

type portionOutput struct {
	Food       string                `json:"food"`
	Class      domain.FoodClass      `json:"class"`
	Grams      float64               `json:"grams"`
	Confidence domain.ConfidenceBand `json:"confidence"`
}

func (s *Server) registerTools() {
	s.server.AddTool(mcp.NewTool(toolAnalyzeLabel,
		mcp.WithDescription("Parse OCR text of a nutrition label into per-100 g facts and health flags"),
		mcp.WithString("text", mcp.Required(), mcp.Description("raw OCR text of the label")),
	), s.handleAnalyzeLabel)

	s.server.AddTool(mcp.NewTool(toolEvaluateIngredients,
		mcp.WithDescription("Flag notable additives in an ingredient list and explain each flag"),
		mcp.WithString("ingredients", mcp.Required(), mcp.Description("ingredient list as printed")),
		mcp.WithString("goal", mcp.Description("weight_loss, diabetes, heart_health or muscle_gain")),
		mcp.WithNumber("grams", mcp.Description("logged portion in grams")),
	), s.handleEvaluateIngredients)

	s.server.AddTool(mcp.NewTool(toolEstimatePortion,
		mcp.WithDescription("Estimate the mass of a food portion in grams"),
		mcp.WithString("food", mcp.Required(), mcp.Description("food name")),
		mcp.WithNumber("ml", mcp.Description("measured volume in millilitres")),
	), s.handleEstimatePortion)
}

func (s *Server) handleAnalyzeLabel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.labels == nil {
		return mcp.NewToolResultError("label analysis is not configured"), nil
	}

	report, err := s.labels.AnalyzeLabel(ctx, text)
	if err != nil {
		return s.toolFailed(ctx, toolAnalyzeLabel, err)
	}
	return jsonResult(report)
}

func (s *Server) handleEvaluateIngredients(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ingredients, err := request.RequireString("ingredients")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	goal := flags.Goal(strings.TrimSpace(request.GetString("goal", "")))
	ec := flags.ExplainContext{Grams: request.GetFloat("grams", 0), Goal: goal}

	found := flags.IngredientFlags(ingredients)
	out := make([]explainedFlag, 0, len(found))
	for _, flag := range found {
		out = append(out, explainedFlag{Flag: flag, Explanation: flags.Explain(flag, ec)})
	}
	return jsonResult(map[string]any{"flags": out})
}

func (s *Server) handleEstimatePortion(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	food, err := request.RequireString("food")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	food = strings.TrimSpace(food)
	if food == "" {
		return mcp.NewToolResultError(fmt.Sprintf("%s: food is empty", toolEstimatePortion)), nil
	}

	est := s.estimator.Estimate(food, nil, domain.ImageSize{}, nil)
	if ml := request.GetFloat("ml", 0); ml > 0 {
		est = s.estimator.FromVolume(food, ml)
	}
	return jsonResult(portionOutput{
		Food:       food,
		Class:      portion.ClassifyFood(food),
		Grams:      est.Grams,
		Confidence: est.Confidence,
	})
}
