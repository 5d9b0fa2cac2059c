package catalog

import (
	"context"
	"time"
)

// Entry 食材目錄中的一筆主檔
type Entry struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CostPerUnit       float64   `json:"costPerUnit"`
	BaseUnit          string    `json:"unit"`
	Category          string    `json:"category,omitempty"`
	Supplier          string    `json:"supplier,omitempty"`
	Allergen          string    `json:"allergen,omitempty"`
	Description       string    `json:"description,omitempty"`
	LowStockThreshold *float64  `json:"lowStockThreshold,omitempty"`
	CurrentStock      *float64  `json:"currentStock,omitempty"`
	CreatedAt         time.Time `json:"createdAt,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt,omitempty"`
}

// Store 食材目錄的儲存介面
type Store interface {
	// ListIngredients 讀取完整目錄快照
	ListIngredients(ctx context.Context) ([]Entry, error)
	// CreateIngredients 以單一原子操作建立所有食材，回傳新 ID
	CreateIngredients(ctx context.Context, entries []Entry) ([]string, error)
}

// IngredientInput 批次匯入食材的單列輸入
type IngredientInput struct {
	Name              string   `json:"name" validate:"min=2"`
	Category          string   `json:"category"`
	Unit              string   `json:"unit" validate:"required"`
	CostPerUnit       float64  `json:"costPerUnit" validate:"gt=0"`
	Supplier          string   `json:"supplier"`
	Allergen          string   `json:"allergen"`
	Description       string   `json:"description"`
	LowStockThreshold *float64 `json:"lowStockThreshold" validate:"omitempty,gte=0"`
	CurrentStock      *float64 `json:"currentStock" validate:"omitempty,gte=0"`
}

// BatchError 批次匯入中單列的錯誤
type BatchError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BatchResult 食材批次匯入結果
type BatchResult struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Errors  []BatchError `json:"errors"`
}
