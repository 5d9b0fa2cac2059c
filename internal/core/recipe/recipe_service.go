package recipe

import (
	"context"
	"fmt"
	"strings"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/pkg/common"

	"go.uber.org/zap"
)

var createMessages = map[string]string{
	"name":         "name is required and must be at least 3 characters",
	"instructions": "instructions are required and must be at least 10 characters",
	"imageUrl":     "imageUrl must be a valid URL",
	"prepTime":     "prepTime must be a non-negative integer",
	"ingredients":  "at least one ingredient is required",
	"ingredientId": "every ingredient must reference a catalog id",
	"quantity":     "ingredient quantity must be positive",
	"unit":         "ingredient unit is required",
}

// IngredientQuantity 單筆建立時指定的食材（以目錄 ID 參照）
type IngredientQuantity struct {
	IngredientID string  `json:"ingredientId" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	Unit         string  `json:"unit" validate:"required"`
}

// CreateRecipeInput 單筆建立食譜的輸入
type CreateRecipeInput struct {
	Name         string               `json:"name" validate:"min=3"`
	Category     string               `json:"category"`
	PrepTime     *int                 `json:"prepTime" validate:"omitempty,gte=0"`
	Cuisine      string               `json:"cuisine"`
	Instructions string               `json:"instructions" validate:"min=10"`
	ImageURL     string               `json:"imageUrl" validate:"omitempty,url"`
	DietaryTags  string               `json:"dietaryTags"`
	Ingredients  []IngredientQuantity `json:"ingredients" validate:"min=1,dive"`
}

// CreateResult 單筆建立結果
type CreateResult struct {
	RecipeID string  `json:"recipeId"`
	Cost     float64 `json:"cost"`
}

// RecipeService 單筆食譜的建立與查詢
type RecipeService struct {
	catalog    *catalog.Service
	records    RecordStore
	dispatcher Dispatcher
	opts       ImporterOptions
}

// NewRecipeService 創建食譜服務
func NewRecipeService(cat catalog.Store, records RecordStore, dispatcher Dispatcher, opts ImporterOptions) *RecipeService {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitTimeout
	}
	return &RecipeService{
		catalog:    catalog.NewService(cat, opts.DuplicatePolicy),
		records:    records,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// CreateRecipe 以目錄 ID 建立單筆食譜，與批次匯入使用相同的計價規則
func (s *RecipeService) CreateRecipe(ctx context.Context, in CreateRecipeInput) (*CreateResult, error) {
	if msgs := common.FieldMessages(in, createMessages); len(msgs) > 0 {
		return nil, common.NewValidationError(msgs...)
	}

	idx, err := s.catalog.LoadIndex(ctx)
	if err != nil {
		return nil, common.Wrap(common.ErrServiceUnavailable, fmt.Errorf("load ingredient catalog: %w", err))
	}

	lines := make([]pricedLine, 0, len(in.Ingredients))
	var missing []string
	for _, item := range in.Ingredients {
		entry, ok := idx.ByID(item.IngredientID)
		if !ok {
			missing = append(missing, fmt.Sprintf("Ingredient with id '%s' not found in catalog", item.IngredientID))
			continue
		}
		lines = append(lines, pricedLine{entry: entry, quantity: item.Quantity, unit: strings.TrimSpace(item.Unit)})
	}
	if len(missing) > 0 {
		return nil, common.NewValidationError(missing...)
	}

	priced := costLines(lines)
	draft := Draft{
		Name:         in.Name,
		Category:     in.Category,
		PrepTime:     in.PrepTime,
		Cuisine:      in.Cuisine,
		Instructions: in.Instructions,
		ImageURL:     in.ImageURL,
		DietaryTags:  SplitTags(in.DietaryTags),
		Ingredients:  priced.ingredients,
		Cost:         priced.cost,
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CommitTimeout)
	defer cancel()
	ids, err := s.records.CreateRecipes(commitCtx, []Draft{draft})
	if err == nil && len(ids) != 1 {
		err = fmt.Errorf("store returned %d ids for 1 recipe", len(ids))
	}
	if err != nil {
		common.LogError("Failed to save recipe", zap.Error(err), zap.String("recipe", in.Name))
		return nil, common.Wrap(common.ErrInternalError, fmt.Errorf("save recipe: %w", err))
	}

	if s.dispatcher != nil && priced.summary != "" {
		s.dispatcher.Fire(EnrichmentJob{
			RecipeID:          ids[0],
			RecipeName:        draft.Name,
			IngredientSummary: priced.summary,
		})
	}

	common.LogInfo("Recipe created",
		zap.String("recipe_id", ids[0]),
		zap.Float64("cost", draft.Cost),
	)
	return &CreateResult{RecipeID: ids[0], Cost: draft.Cost}, nil
}

// GetRecipe 讀取單筆食譜
func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.ErrInvalidRequest
	}
	rec, err := s.records.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
