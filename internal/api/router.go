package api

import (
	"context"
	"net/http"
	"time"

	"recipe-importer/internal/api/handlers/health"
	"recipe-importer/internal/api/handlers/nutrition"
	recipeHandler "recipe-importer/internal/api/handlers/recipe"
	"recipe-importer/internal/api/middleware"
	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 超時設置；匯入本身在提交時有自己的逾時，不受請求取消影響
const timeoutDuration = 120 * time.Second

// Dependencies 路由需要的服務
type Dependencies struct {
	Importer    recipeHandler.Importer
	Recipes     recipeHandler.RecipeService
	Catalog     recipeHandler.CatalogService
	Estimator   recipe.Estimator
	Queue       health.QueueReporter
	ReadyChecks map[string]health.Check
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.Use(requestTimeout(timeoutDuration))

	healthHandler := health.NewHandler(cfg.App.Version, deps.Queue, deps.ReadyChecks)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.NewDeduplicator(cfg.DedupWindow).Middleware())
	{
		recipes := recipeHandler.NewHandler(deps.Importer, deps.Recipes, cfg.Import.MaxRows)
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/import", recipes.HandleImport)
			recipeGroup.POST("/import/csv", recipes.HandleImportCSV)
			recipeGroup.POST("", recipes.HandleCreate)
			recipeGroup.GET("/:id", recipes.HandleGet)
		}

		ingredients := recipeHandler.NewIngredientHandler(deps.Catalog, cfg.Import.MaxRows)
		ingredientGroup := api.Group("/ingredients")
		{
			ingredientGroup.GET("", ingredients.HandleList)
			ingredientGroup.POST("/batch", ingredients.HandleBatch)
		}

		if deps.Estimator != nil {
			api.POST("/nutrition/estimate", nutrition.NewHandler(deps.Estimator).HandleEstimate)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Int("max_rows", cfg.Import.MaxRows),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	return router
}

// requestTimeout 為請求設定逾時；處理完仍逾時且尚未回應時回傳 504
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", d),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: "request timeout",
			})
		}
	}
}
