package recipe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	recipeService "recipe-importer/internal/core/recipe"
	"recipe-importer/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Importer 批次匯入入口
type Importer interface {
	ImportRecipes(ctx context.Context, rows []recipeService.ImportRow) recipeService.ImportResult
}

// RecipeService 單筆食譜的建立與查詢
type RecipeService interface {
	CreateRecipe(ctx context.Context, in recipeService.CreateRecipeInput) (*recipeService.CreateResult, error)
	GetRecipe(ctx context.Context, id string) (*recipeService.Record, error)
}

// ImportRequest JSON 匯入請求
type ImportRequest struct {
	Recipes []recipeService.ImportRow `json:"recipes" binding:"required"`
}

// Handler 食譜處理程序
type Handler struct {
	importer Importer
	recipes  RecipeService
	maxRows  int
}

// NewHandler 創建新的食譜處理程序；maxRows <= 0 表示不限制列數
func NewHandler(importer Importer, recipes RecipeService, maxRows int) *Handler {
	return &Handler{
		importer: importer,
		recipes:  recipes,
		maxRows:  maxRows,
	}
}

// HandleImport 以 JSON 匯入一批食譜
func (h *Handler) HandleImport(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}
	h.runImport(c, req.Recipes, "json")
}

// HandleImportCSV 以 multipart 上傳的 CSV 檔匯入一批食譜
func (h *Handler) HandleImportCSV(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, fmt.Errorf("multipart field 'file' is required: %w", err)))
		return
	}
	f, err := fh.Open()
	if err != nil {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}
	defer f.Close()

	rows, err := DecodeCSV(f)
	if err != nil {
		common.LogWarn("CSV 解析失敗",
			zap.Error(err),
			zap.String("filename", fh.Filename),
			zap.String("request_id", requestid.Get(c)),
		)
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}
	h.runImport(c, rows, "csv")
}

func (h *Handler) runImport(c *gin.Context, rows []recipeService.ImportRow, source string) {
	if h.maxRows > 0 && len(rows) > h.maxRows {
		common.WriteError(c, common.Wrap(common.ErrTooManyRows,
			fmt.Errorf("%d rows exceeds the limit of %d", len(rows), h.maxRows)))
		return
	}

	common.LogInfo("開始處理食譜匯入",
		zap.String("request_id", requestid.Get(c)),
		zap.String("source", source),
		zap.Int("rows", len(rows)),
	)

	result := h.importer.ImportRecipes(c.Request.Context(), rows)
	c.JSON(http.StatusOK, result)
}

// HandleCreate 建立單筆食譜
func (h *Handler) HandleCreate(c *gin.Context) {
	var in recipeService.CreateRecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.WriteError(c, common.Wrap(common.ErrInvalidRequest, err))
		return
	}

	result, err := h.recipes.CreateRecipe(c.Request.Context(), in)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// HandleGet 讀取單筆食譜
func (h *Handler) HandleGet(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	rec, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
