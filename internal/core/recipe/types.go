package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FieldValue 接受 JSON 字串、數字或 null 的欄位（試算表轉出的資料常混用）
type FieldValue string

// UnmarshalJSON 實作 json.Unmarshaler
func (f *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FieldValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FieldValue(n.String())
	return nil
}

// ImportRow 匯入的一列食譜資料
type ImportRow struct {
	Name              string     `json:"name"`
	Category          string     `json:"category,omitempty"`
	PrepTime          FieldValue `json:"prepTime,omitempty"`
	Cuisine           string     `json:"cuisine,omitempty"`
	Instructions      string     `json:"instructions"`
	ImageURL          string     `json:"imageUrl,omitempty"`
	DietaryTags       string     `json:"dietaryTags,omitempty"`
	IngredientsString string     `json:"ingredientsString"`

	// Line 來源檔案中的列號，0 表示沒有檔案列號（例如 JSON 請求）
	Line int `json:"-"`
}

// ParsedIngredient 食材字串中語法正確的一項
type ParsedIngredient struct {
	Name     string
	Quantity float64
	Unit     string
}

// ResolvedIngredient 已對應到目錄的食材
type ResolvedIngredient struct {
	CatalogID string  `json:"ingredientId"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
}

// NutritionResult 營養估算結果（整份食譜）
type NutritionResult struct {
	Calories          float64 `json:"calories"`
	ProteinGrams      float64 `json:"proteinGrams"`
	FatGrams          float64 `json:"fatGrams"`
	CarbohydrateGrams float64 `json:"carbohydrateGrams"`
	Disclaimer        string  `json:"disclaimer,omitempty"`
}

// Draft 待寫入的食譜
type Draft struct {
	Name         string               `json:"name"`
	Category     string               `json:"category,omitempty"`
	PrepTime     *int                 `json:"prepTime,omitempty"`
	Cuisine      string               `json:"cuisine,omitempty"`
	Instructions string               `json:"instructions"`
	ImageURL     string               `json:"imageUrl,omitempty"`
	DietaryTags  []string             `json:"dietaryTags"`
	Ingredients  []ResolvedIngredient `json:"ingredients"`
	Cost         float64              `json:"cost"`
}

// Record 已儲存的食譜
type Record struct {
	ID string `json:"id"`
	Draft
	NutritionalInfo *NutritionResult `json:"nutritionalInfo,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ImportErrorDetail 單列匯入失敗的原因
type ImportErrorDetail struct {
	RowIndex   int      `json:"rowIndex"`
	RecipeName string   `json:"recipeName"`
	Errors     []string `json:"errors"`
}

// ImportResult 匯入結果
type ImportResult struct {
	Success       bool                `json:"success"`
	ImportedCount int                 `json:"importedCount"`
	ErrorCount    int                 `json:"errorCount"`
	Errors        []ImportErrorDetail `json:"errors"`
}

// EnrichmentJob 一筆已提交食譜的營養補全工作
type EnrichmentJob struct {
	RecipeID          string
	RecipeName        string
	IngredientSummary string
}
