package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-importer/internal/api"
	"recipe-importer/internal/api/handlers/health"
	"recipe-importer/internal/core/ai/queue"
	"recipe-importer/internal/core/ai/service"
	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env（不存在時直接使用環境變數）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: failed to load .env: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.App.Name); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_api_key", config.MaskAPIKey(cfg.OpenRouter.APIKey)),
		zap.String("estimator", cfg.Estimator.Provider),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("duplicate_policy", cfg.Catalog.DuplicatePolicy),
	)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	store, err := openStore(startupCtx, cfg.Database)
	if err != nil {
		common.LogFatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	aiCache, err := openCache(startupCtx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}

	p, err := openProvider(startupCtx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize estimator provider", zap.Error(err))
	}

	aiService := service.NewService(p, aiCache, maxTokens(cfg))
	defer aiService.Close()

	estimator := recipe.NewNutritionService(aiService)
	enrichment := queue.NewManager(cfg.Enrichment, estimator, store)

	opts, err := importerOptions(cfg)
	if err != nil {
		common.LogFatal("Invalid catalog duplicate policy", zap.Error(err))
	}

	router := api.SetupRouter(cfg, api.Dependencies{
		Importer:  recipe.NewImporter(store, store, enrichment, opts),
		Recipes:   recipe.NewRecipeService(store, store, enrichment, opts),
		Catalog:   catalog.NewService(store, opts.DuplicatePolicy),
		Estimator: estimator,
		Queue:     enrichment,
		ReadyChecks: map[string]health.Check{
			"store": store.Ping,
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.String("model", aiService.Model()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	// 提交後才派送的補全工作給較長的時間收尾
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Enrichment.EstimateTimeout+cfg.Enrichment.UpdateTimeout)
	defer cancelDrain()
	if err := enrichment.Close(drainCtx); err != nil {
		common.LogWarn("Enrichment queue did not drain", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
