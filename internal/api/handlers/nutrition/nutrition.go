package nutrition

import (
	"net/http"

	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// EstimateRequest 營養估算請求
type EstimateRequest struct {
	RecipeName        string `json:"recipeName" binding:"required"`
	IngredientSummary string `json:"ingredientSummary" binding:"required"`
}

// Handler 營養估算處理器
type Handler struct {
	estimator recipe.Estimator
}

// NewHandler 創建營養估算處理器
func NewHandler(estimator recipe.Estimator) *Handler {
	return &Handler{estimator: estimator}
}

// HandleEstimate 同步估算一份食譜的營養成分（不寫入任何資料）
func (h *Handler) HandleEstimate(c *gin.Context) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}

	result, err := h.estimator.Estimate(c.Request.Context(), req.RecipeName, req.IngredientSummary)
	if err != nil {
		if !common.IsValidationError(err) && common.StatusOf(err) == http.StatusInternalServerError {
			// 模型回覆無法使用也算上游錯誤
			err = common.Wrap(common.ErrAIServiceError, err)
		}
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
