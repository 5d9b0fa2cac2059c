package catalog

import (
	"context"
	"fmt"
	"strings"

	"recipe-importer/internal/pkg/common"

	"go.uber.org/zap"
)

var ingredientMessages = map[string]string{
	"name":              "name must be at least 2 characters",
	"unit":              "unit is required",
	"costPerUnit":       "costPerUnit must be a positive number",
	"lowStockThreshold": "lowStockThreshold must be zero or positive",
	"currentStock":      "currentStock must be zero or positive",
}

// Service 食材目錄服務
type Service struct {
	store  Store
	policy DuplicatePolicy
}

// NewService 創建食材目錄服務
func NewService(store Store, policy DuplicatePolicy) *Service {
	return &Service{store: store, policy: policy}
}

// ListIngredients 列出目錄中所有食材
func (s *Service) ListIngredients(ctx context.Context) ([]Entry, error) {
	entries, err := s.store.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return entries, nil
}

// LoadIndex 讀取最新快照並建立索引；重複名稱依 policy 處理並記錄警告
func (s *Service) LoadIndex(ctx context.Context) (*Index, error) {
	entries, err := s.store.ListIngredients(ctx)
	if err != nil {
		return nil, err
	}
	idx := BuildIndex(entries, s.policy)
	if dups := idx.Duplicates(); len(dups) > 0 {
		common.LogWarn("Catalog contains duplicate ingredient names",
			zap.Strings("names", dups),
			zap.String("policy", string(s.policy)),
		)
	}
	return idx, nil
}

// ImportIngredients 驗證並以單一原子寫入建立所有合格的食材
func (s *Service) ImportIngredients(ctx context.Context, rows []IngredientInput) BatchResult {
	var (
		valid  []Entry
		errors []BatchError
	)

	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.Unit = strings.TrimSpace(row.Unit)
		if msgs := common.FieldMessages(row, ingredientMessages); len(msgs) > 0 {
			errors = append(errors, BatchError{Index: i, Message: strings.Join(msgs, "; ")})
			continue
		}
		valid = append(valid, Entry{
			Name:              row.Name,
			CostPerUnit:       row.CostPerUnit,
			BaseUnit:          row.Unit,
			Category:          row.Category,
			Supplier:          row.Supplier,
			Allergen:          row.Allergen,
			Description:       row.Description,
			LowStockThreshold: row.LowStockThreshold,
			CurrentStock:      row.CurrentStock,
		})
	}

	if len(valid) == 0 {
		if len(errors) == 0 {
			errors = []BatchError{{Index: -1, Message: "no valid ingredients were processed"}}
		}
		common.LogWarn("No valid ingredients in batch", zap.Int("rows", len(rows)))
		return BatchResult{Success: false, Count: 0, Errors: errors}
	}

	ids, err := s.store.CreateIngredients(ctx, valid)
	if err == nil && len(ids) != len(valid) {
		err = fmt.Errorf("store returned %d ids for %d ingredients", len(ids), len(valid))
	}
	if err != nil {
		common.LogError("Failed to commit ingredient batch", zap.Error(err), zap.Int("valid", len(valid)))
		return BatchResult{
			Success: false,
			Count:   0,
			Errors:  append([]BatchError{{Index: -1, Message: "failed to save ingredient batch: " + err.Error()}}, errors...),
		}
	}

	common.LogInfo("Ingredient batch committed", zap.Int("count", len(ids)), zap.Int("errors", len(errors)))
	if errors == nil {
		errors = []BatchError{}
	}
	return BatchResult{Success: true, Count: len(ids), Errors: errors}
}
