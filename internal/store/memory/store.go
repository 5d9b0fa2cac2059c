// Package memory 行程內的目錄與食譜儲存，供開發與測試使用
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/pkg/common"
)

// Compile-time interface check.
var (
	_ catalog.Store      = (*Store)(nil)
	_ recipe.RecordStore = (*Store)(nil)
)

// Store 以 map 保存資料；批次寫入在同一把鎖內完成，因此是原子的
type Store struct {
	mu          sync.RWMutex
	ingredients map[string]catalog.Entry
	order       []string
	recipes     map[string]*recipe.Record
	now         func() time.Time
	newID       func() string
}

// NewStore 創建空的記憶體儲存
func NewStore() *Store {
	return &Store{
		ingredients: make(map[string]catalog.Entry),
		recipes:     make(map[string]*recipe.Record),
		now:         time.Now,
		newID:       common.GenerateUUID,
	}
}

// ListIngredients 依建立順序回傳目錄快照
func (s *Store) ListIngredients(ctx context.Context) ([]catalog.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Entry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.ingredients[id])
	}
	return out, nil
}

// CreateIngredients 建立食材
func (s *Store) CreateIngredients(ctx context.Context, entries []catalog.Entry) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ids := make([]string, len(entries))
	for i, e := range entries {
		e.ID = s.newID()
		e.CreatedAt, e.UpdatedAt = now, now
		s.ingredients[e.ID] = e
		s.order = append(s.order, e.ID)
		ids[i] = e.ID
	}
	return ids, nil
}

// CreateRecipes 建立所有食譜
func (s *Store) CreateRecipes(ctx context.Context, drafts []recipe.Draft) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ids := make([]string, len(drafts))
	seen := make(map[string]bool, len(drafts))
	for i := range drafts {
		id := s.newID()
		if _, exists := s.recipes[id]; exists || seen[id] {
			return nil, fmt.Errorf("duplicate recipe id %s", id)
		}
		seen[id] = true
		ids[i] = id
	}
	for i, d := range drafts {
		s.recipes[ids[i]] = &recipe.Record{
			ID:        ids[i],
			Draft:     copyDraft(d),
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return ids, nil
}

// UpdateNutrition 設定單筆食譜的營養資訊
func (s *Store) UpdateNutrition(ctx context.Context, id string, info recipe.NutritionResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recipes[id]
	if !ok {
		return common.ErrNotFound
	}
	rec.NutritionalInfo = &info
	rec.UpdatedAt = s.now()
	return nil
}

// GetRecipe 讀取單筆食譜（回傳副本）
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recipes[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *rec
	cp.Draft = copyDraft(rec.Draft)
	if rec.NutritionalInfo != nil {
		info := *rec.NutritionalInfo
		cp.NutritionalInfo = &info
	}
	return &cp, nil
}

func copyDraft(d recipe.Draft) recipe.Draft {
	d.DietaryTags = append([]string{}, d.DietaryTags...)
	d.Ingredients = append([]recipe.ResolvedIngredient{}, d.Ingredients...)
	if d.PrepTime != nil {
		pt := *d.PrepTime
		d.PrepTime = &pt
	}
	return d
}
