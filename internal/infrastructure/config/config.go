package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Bedrock     BedrockConfig    `mapstructure:"bedrock"`
	Estimator   EstimatorConfig  `mapstructure:"estimator"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Catalog     CatalogConfig    `mapstructure:"catalog"`
	Import      ImportConfig     `mapstructure:"import"`
	Enrichment  EnrichmentConfig `mapstructure:"enrichment"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// BedrockConfig AWS Bedrock 配置
type BedrockConfig struct {
	Region    string `mapstructure:"region"`
	ModelID   string `mapstructure:"model_id"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// EstimatorConfig 營養估算後端選擇
type EstimatorConfig struct {
	Provider string `mapstructure:"provider"` // openrouter | bedrock
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig 資料儲存設定
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // memory | postgres | dynamodb
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
	Region          string `mapstructure:"region"`
	RecipesTable    string `mapstructure:"recipes_table"`
	IngredientTable string `mapstructure:"ingredients_table"`
}

// CatalogConfig 食材目錄設定
type CatalogConfig struct {
	DuplicatePolicy string `mapstructure:"duplicate_policy"` // last_wins | reject
}

// ImportConfig 批次匯入設定
type ImportConfig struct {
	CommitTimeout time.Duration `mapstructure:"commit_timeout"`
	MaxRows       int           `mapstructure:"max_rows"`
}

// EnrichmentConfig 營養補全背景任務設定
type EnrichmentConfig struct {
	Workers         int           `mapstructure:"workers"`
	QueueSize       int           `mapstructure:"queue_size"`
	EstimateTimeout time.Duration `mapstructure:"estimate_timeout"`
	UpdateTimeout   time.Duration `mapstructure:"update_timeout"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定（環境變數需先由呼叫端載入 .env）
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用環境變量
	bindings := map[string]string{
		"openrouter.api_key":          "OPENROUTER_API_KEY",
		"openrouter.model":            "OPENROUTER_MODEL",
		"openrouter.base_url":         "OPENROUTER_BASE_URL",
		"openrouter.max_tokens":       "MODEL_MAX_TOKENS",
		"bedrock.region":              "AWS_REGION",
		"bedrock.model_id":            "BEDROCK_MODEL_ID",
		"estimator.provider":          "ESTIMATOR_PROVIDER",
		"cache.enabled":               "CACHE_ENABLED",
		"cache.backend":               "CACHE_BACKEND",
		"redis.addr":                  "REDIS_ADDR",
		"redis.password":              "REDIS_PASSWORD",
		"database.driver":             "DATABASE_DRIVER",
		"database.dsn":                "DATABASE_URL",
		"catalog.duplicate_policy":    "CATALOG_DUPLICATE_POLICY",
		"import.commit_timeout":       "IMPORT_COMMIT_TIMEOUT",
		"enrichment.workers":          "ENRICHMENT_WORKERS",
		"enrichment.estimate_timeout": "ENRICHMENT_ESTIMATE_TIMEOUT",
		"rate_limit.enabled":          "RATE_LIMIT_ENABLED",
		"rate_limit.requests":         "RATE_LIMIT_REQUESTS",
		"rate_limit.window":           "RATE_LIMIT_WINDOW",
		"dedup_window":                "DEDUP_WINDOW",
		"log_level":                   "LOG_LEVEL",
		"server.port":                 "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-importer")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 5*1024*1024) // 5MB

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "google/gemini-2.0-flash-001")
	v.SetDefault("openrouter.max_tokens", 400)
	v.SetDefault("openrouter.timeout", "60s")

	// Bedrock 設定
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 400)

	v.SetDefault("estimator.provider", "openrouter")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 資料庫設定
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.region", "us-east-1")
	v.SetDefault("database.recipes_table", "recipes")
	v.SetDefault("database.ingredients_table", "ingredients")

	v.SetDefault("catalog.duplicate_policy", "last_wins")

	// 匯入設定
	v.SetDefault("import.commit_timeout", "30s")
	v.SetDefault("import.max_rows", 1000)

	// 營養補全設定
	v.SetDefault("enrichment.workers", 4)
	v.SetDefault("enrichment.queue_size", 500)
	v.SetDefault("enrichment.estimate_timeout", "45s")
	v.SetDefault("enrichment.update_timeout", "10s")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Estimator.Provider {
	case "openrouter", "bedrock":
	default:
		return fmt.Errorf("unknown estimator provider %q", config.Estimator.Provider)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Redis.Addr == "" {
				return fmt.Errorf("redis addr is required for redis cache")
			}
		default:
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	switch config.Database.Driver {
	case "memory":
	case "postgres":
		if config.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for postgres")
		}
	case "dynamodb":
		if config.Database.RecipesTable == "" || config.Database.IngredientTable == "" {
			return fmt.Errorf("dynamodb table names are required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", config.Database.Driver)
	}

	switch strings.ToLower(strings.TrimSpace(config.Catalog.DuplicatePolicy)) {
	case "last_wins", "reject":
	default:
		return fmt.Errorf("unknown catalog duplicate policy %q", config.Catalog.DuplicatePolicy)
	}

	if config.Import.CommitTimeout <= 0 {
		return fmt.Errorf("invalid import commit timeout")
	}
	if config.Import.MaxRows <= 0 {
		return fmt.Errorf("invalid import max rows")
	}

	// 驗證補全隊列設定
	if config.Enrichment.Workers <= 0 {
		return fmt.Errorf("invalid enrichment workers")
	}
	if config.Enrichment.QueueSize <= 0 {
		return fmt.Errorf("invalid enrichment queue size")
	}
	if config.Enrichment.EstimateTimeout <= 0 || config.Enrichment.UpdateTimeout <= 0 {
		return fmt.Errorf("invalid enrichment timeouts")
	}

	return nil
}
