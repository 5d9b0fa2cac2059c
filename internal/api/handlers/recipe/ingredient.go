package recipe

import (
	"context"
	"net/http"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogService 食材目錄服務
type CatalogService interface {
	ListIngredients(ctx context.Context) ([]catalog.Entry, error)
	ImportIngredients(ctx context.Context, rows []catalog.IngredientInput) catalog.BatchResult
}

// IngredientBatchRequest 食材批次匯入請求
type IngredientBatchRequest struct {
	Ingredients []catalog.IngredientInput `json:"ingredients" binding:"required"`
}

// IngredientHandler 食材目錄處理程序
type IngredientHandler struct {
	catalog CatalogService
	maxRows int
}

// NewIngredientHandler 創建食材目錄處理程序
func NewIngredientHandler(svc CatalogService, maxRows int) *IngredientHandler {
	return &IngredientHandler{catalog: svc, maxRows: maxRows}
}

// HandleList 列出目錄
func (h *IngredientHandler) HandleList(c *gin.Context) {
	entries, err := h.catalog.ListIngredients(c.Request.Context())
	if err != nil {
		common.LogError("Failed to list ingredients",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		common.WriteError(c, common.Wrap(common.ErrServiceUnavailable, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": entries,
		"count":       len(entries),
	})
}

// HandleBatch 批次建立食材
func (h *IngredientHandler) HandleBatch(c *gin.Context) {
	var req IngredientBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}
	if h.maxRows > 0 && len(req.Ingredients) > h.maxRows {
		common.WriteError(c, common.ErrTooManyRows)
		return
	}

	result := h.catalog.ImportIngredients(c.Request.Context(), req.Ingredients)
	common.LogInfo("Ingredient batch processed",
		zap.String("request_id", requestid.Get(c)),
		zap.Int("rows", len(req.Ingredients)),
		zap.Int("created", result.Count),
		zap.Int("errors", len(result.Errors)),
	)
	c.JSON(http.StatusOK, result)
}
