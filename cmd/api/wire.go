package main

import (
	"context"
	"fmt"

	"recipe-importer/internal/core/ai/bedrock"
	"recipe-importer/internal/core/ai/cache"
	"recipe-importer/internal/core/ai/openrouter"
	"recipe-importer/internal/core/ai/provider"
	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"
	"recipe-importer/internal/store/dynamo"
	"recipe-importer/internal/store/memory"
	"recipe-importer/internal/store/postgres"

	"go.uber.org/zap"
)

// appStore 同時提供目錄與食譜儲存
type appStore interface {
	catalog.Store
	recipe.RecordStore
	Ping(ctx context.Context) error
	Close() error
}

// 沒有連線可關閉、也不需要 ping 的儲存
type nopLifecycle struct{}

func (nopLifecycle) Ping(context.Context) error { return nil }
func (nopLifecycle) Close() error               { return nil }

type memoryStore struct {
	*memory.Store
	nopLifecycle
}

type dynamoStore struct {
	*dynamo.Store
	nopLifecycle
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (appStore, error) {
	switch cfg.Driver {
	case "memory":
		common.LogWarn("Using in-memory store, data is lost on restart")
		return memoryStore{Store: memory.NewStore()}, nil
	case "postgres":
		return postgres.Open(ctx, cfg)
	case "dynamodb":
		s, err := dynamo.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return dynamoStore{Store: s}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// openCache 依設定建立估算結果快取；停用時回傳 nil
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewService(ctx, cfg.Cache, cfg.Redis)
	default:
		return cache.NewManager(cfg.Cache), nil
	}
}

func openProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Estimator.Provider {
	case "bedrock":
		return bedrock.NewClient(ctx, cfg.Bedrock)
	default:
		common.LogInfo("Using OpenRouter estimator", zap.String("model", cfg.OpenRouter.Model))
		return openrouter.NewClient(cfg.OpenRouter), nil
	}
}

func maxTokens(cfg *config.Config) int {
	if cfg.Estimator.Provider == "bedrock" {
		return cfg.Bedrock.MaxTokens
	}
	return cfg.OpenRouter.MaxTokens
}

// importerOptions 由設定組出匯入選項；重複策略無法解析時回傳錯誤
func importerOptions(cfg *config.Config) (recipe.ImporterOptions, error) {
	policy, err := catalog.ParsePolicy(cfg.Catalog.DuplicatePolicy)
	if err != nil {
		return recipe.ImporterOptions{}, err
	}
	return recipe.ImporterOptions{
		DuplicatePolicy: policy,
		CommitTimeout:   cfg.Import.CommitTimeout,
	}, nil
}
