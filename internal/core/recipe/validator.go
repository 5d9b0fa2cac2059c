package recipe

import (
	"fmt"
	"math"
	"strings"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/pkg/common"

	"github.com/go-playground/validator/v10"
)

const msgNoValidIngredients = "no valid ingredients could be parsed"

var rowMessages = map[string]string{
	"name":              "name is required and must be at least 3 characters",
	"instructions":      "instructions are required and must be at least 10 characters",
	"ingredientsString": "ingredientsString is required",
	"imageUrl":          "imageUrl must be a valid URL",
	"prepTime":          "prepTime must be a non-negative integer",
}

func init() {
	if err := common.Validator().RegisterValidation("nonnegint", func(fl validator.FieldLevel) bool {
		_, ok := parseNonNegativeInt(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
}

// rowFields 列的純量欄位驗證規則
type rowFields struct {
	Name              string `json:"name" validate:"min=3"`
	Instructions      string `json:"instructions" validate:"min=10"`
	IngredientsString string `json:"ingredientsString" validate:"min=1"`
	ImageURL          string `json:"imageUrl" validate:"omitempty,url"`
	PrepTime          string `json:"prepTime" validate:"omitempty,nonnegint"`
}

// RowOutcome 單列的評估結果：Errors 為空時 Draft 可提交
type RowOutcome struct {
	Index   int
	Label   string
	Draft   Draft
	Summary string
	Errors  []string
}

// Accepted 該列是否可提交
func (o RowOutcome) Accepted() bool {
	return len(o.Errors) == 0
}

// Detail 轉為錯誤報告
func (o RowOutcome) Detail() ImportErrorDetail {
	return ImportErrorDetail{RowIndex: o.Index, RecipeName: o.Label, Errors: o.Errors}
}

// pricedLine 已找到目錄項目的一行食材
type pricedLine struct {
	entry    catalog.Entry
	quantity float64
	unit     string
}

// costing 對一組食材行累加後的結果
type costing struct {
	ingredients []ResolvedIngredient
	cost        float64
	summary     string
}

// costLines 計算成本與營養估算用的摘要字串
//
// 數量直接乘上目錄單價，不做單位換算。單價非有限值或為負時以 0 計。
func costLines(lines []pricedLine) costing {
	ingredients := make([]ResolvedIngredient, 0, len(lines))
	parts := make([]string, 0, len(lines))
	total := 0.0

	for _, l := range lines {
		ingredients = append(ingredients, ResolvedIngredient{
			CatalogID: l.entry.ID,
			Name:      l.entry.Name,
			Quantity:  l.quantity,
			Unit:      l.unit,
		})
		total += l.quantity * unitCost(l.entry)
		parts = append(parts, formatQuantity(l.quantity)+l.unit+" "+l.entry.Name)
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		total = 0
	}
	return costing{
		ingredients: ingredients,
		cost:        total,
		summary:     strings.Join(parts, "; "),
	}
}

func unitCost(e catalog.Entry) float64 {
	c := e.CostPerUnit
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
		return 0
	}
	return c
}

// rowLabel 報告用的名稱；空白時使用來源檔案列號，沒有時以索引推算（第 1 列為標題）
func rowLabel(index int, row ImportRow) string {
	if strings.TrimSpace(row.Name) != "" {
		return row.Name
	}
	if row.Line > 0 {
		return fmt.Sprintf("Row %d", row.Line)
	}
	return fmt.Sprintf("Row %d", index+2)
}

// resolveByName 以名稱對應目錄，回傳找到的行與對應失敗的訊息
func resolveByName(parsed []ParsedIngredient, idx *catalog.Index) ([]pricedLine, []string) {
	lines := make([]pricedLine, 0, len(parsed))
	var errs []string
	for _, p := range parsed {
		entry, status := idx.Lookup(p.Name)
		switch status {
		case catalog.Found:
			lines = append(lines, pricedLine{entry: entry, quantity: p.Quantity, unit: p.Unit})
		case catalog.Ambiguous:
			errs = append(errs, fmt.Sprintf("Ingredient '%s' matches %d catalog entries", p.Name, idx.Matches(p.Name)))
		default:
			errs = append(errs, fmt.Sprintf("Ingredient '%s' not found in catalog", p.Name))
		}
	}
	return lines, errs
}

// SplitTags 以逗號切分標籤並去除空白項目
func SplitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// EvaluateRow 驗證一列並計算成本
//
// 所有錯誤都會一起回報；任何一個錯誤都讓整列被拒。idx 為 nil 屬於呼叫端錯誤。
func EvaluateRow(index int, row ImportRow, idx *catalog.Index) RowOutcome {
	if idx == nil {
		panic("recipe: EvaluateRow called with nil catalog index")
	}

	outcome := RowOutcome{Index: index, Label: rowLabel(index, row)}

	errs := common.FieldMessages(rowFields{
		Name:              row.Name,
		Instructions:      row.Instructions,
		IngredientsString: row.IngredientsString,
		ImageURL:          row.ImageURL,
		PrepTime:          strings.TrimSpace(string(row.PrepTime)),
	}, rowMessages)

	parsed, parseErrs := ParseIngredients(row.IngredientsString)
	errs = append(errs, parseErrs...)
	if row.IngredientsString != "" && len(parsed) == 0 {
		errs = append(errs, msgNoValidIngredients)
	}

	lines, resolveErrs := resolveByName(parsed, idx)
	errs = append(errs, resolveErrs...)

	if len(errs) > 0 {
		outcome.Errors = errs
		return outcome
	}

	priced := costLines(lines)
	outcome.Summary = priced.summary
	outcome.Draft = Draft{
		Name:         row.Name,
		Category:     row.Category,
		Cuisine:      row.Cuisine,
		Instructions: row.Instructions,
		ImageURL:     row.ImageURL,
		DietaryTags:  SplitTags(row.DietaryTags),
		Ingredients:  priced.ingredients,
		Cost:         priced.cost,
	}
	if pt, ok := parseNonNegativeInt(string(row.PrepTime)); ok {
		outcome.Draft.PrepTime = &pt
	}
	return outcome
}
