package recipe

import "context"

// RecordStore 食譜的儲存介面
type RecordStore interface {
	// CreateRecipes 以單一原子操作建立全部食譜，失敗時不得留下任何一筆
	CreateRecipes(ctx context.Context, drafts []Draft) ([]string, error)
	// UpdateNutrition 只更新單筆食譜的 nutritionalInfo
	UpdateNutrition(ctx context.Context, id string, info NutritionResult) error
	// GetRecipe 讀取單筆食譜，不存在時回傳 common.ErrNotFound
	GetRecipe(ctx context.Context, id string) (*Record, error)
}

// Estimator 營養估算
type Estimator interface {
	Estimate(ctx context.Context, recipeName, ingredientSummary string) (*NutritionResult, error)
}

// Dispatcher 非同步補全派送；Fire 立即返回，佇列滿或已關閉時回傳 false
type Dispatcher interface {
	Fire(job EnrichmentJob) bool
}
