package recipe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"recipe-importer/internal/core/ai/service"
	"recipe-importer/internal/pkg/common"

	"go.uber.org/zap"
)

const nutritionSystemPrompt = "You are a nutritional analysis expert. Reply with a single JSON object and nothing else."

// aiProcessor AI 服務中用到的方法
type aiProcessor interface {
	ProcessRequest(ctx context.Context, system, prompt string, accept service.AcceptFunc) (*service.Response, error)
}

// NutritionService 以 AI 估算整份食譜的營養成分
type NutritionService struct {
	aiService aiProcessor
}

// NewNutritionService 創建營養估算服務
func NewNutritionService(aiService aiProcessor) *NutritionService {
	return &NutritionService{aiService: aiService}
}

// nutritionPayload 模型回覆；四個數值欄位都必須出現
type nutritionPayload struct {
	Calories          *float64 `json:"calories"`
	ProteinGrams      *float64 `json:"proteinGrams"`
	FatGrams          *float64 `json:"fatGrams"`
	CarbohydrateGrams *float64 `json:"carbohydrateGrams"`
	Disclaimer        string   `json:"disclaimer"`
}

// Estimate 實作 Estimator
func (s *NutritionService) Estimate(ctx context.Context, recipeName, ingredientSummary string) (*NutritionResult, error) {
	if strings.TrimSpace(ingredientSummary) == "" {
		return nil, common.NewValidationError("ingredient summary is required")
	}

	prompt := fmt.Sprintf(`Based on the recipe named '%s' with the following ingredients and their quantities:
		%s

		Provide an estimated nutritional analysis for the ENTIRE RECIPE as described.
		Return JSON with exactly these keys:
		- "calories": total calories (number)
		- "proteinGrams": total protein in grams (number)
		- "fatGrams": total fat in grams (number)
		- "carbohydrateGrams": total carbohydrates in grams (number)
		- "disclaimer": a brief note that these are estimates and actual values vary with ingredient choices and preparation
		`,
		recipeName,
		ingredientSummary)

	// 只有能解析的回覆才會進入快取
	var (
		result   *NutritionResult
		parseErr error
	)
	resp, err := s.aiService.ProcessRequest(ctx, nutritionSystemPrompt, prompt, func(content string) error {
		result, parseErr = parseNutrition(content)
		return parseErr
	})
	if err != nil {
		if parseErr == nil || !errors.Is(err, parseErr) {
			return nil, fmt.Errorf("AI service error: %w", err)
		}
		common.LogWarn("Unusable nutrition response",
			zap.String("recipe", recipeName),
			zap.Error(parseErr),
		)
		return nil, parseErr
	}
	if resp == nil || result == nil {
		return nil, fmt.Errorf("empty AI response")
	}
	return result, nil
}

// parseNutrition 解析模型回覆；缺欄位或非有限值時整筆拒絕，避免寫入不完整的結果
func parseNutrition(content string) (*NutritionResult, error) {
	raw, err := common.ExtractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var p nutritionPayload
	if err := common.ParseJSON(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse nutrition JSON: %w", err)
	}

	fields := []struct {
		name string
		val  *float64
	}{
		{"calories", p.Calories},
		{"proteinGrams", p.ProteinGrams},
		{"fatGrams", p.FatGrams},
		{"carbohydrateGrams", p.CarbohydrateGrams},
	}
	for _, f := range fields {
		if f.val == nil {
			return nil, fmt.Errorf("nutrition response missing %s", f.name)
		}
		if math.IsNaN(*f.val) || math.IsInf(*f.val, 0) || *f.val < 0 {
			return nil, fmt.Errorf("nutrition response has invalid %s", f.name)
		}
	}

	return &NutritionResult{
		Calories:          *p.Calories,
		ProteinGrams:      *p.ProteinGrams,
		FatGrams:          *p.FatGrams,
		CarbohydrateGrams: *p.CarbohydrateGrams,
		Disclaimer:        strings.TrimSpace(p.Disclaimer),
	}, nil
}

var _ Estimator = (*NutritionService)(nil)
