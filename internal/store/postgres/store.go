// Package postgres 以 PostgreSQL 保存食材目錄與食譜
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var (
	_ catalog.Store      = (*Store)(nil)
	_ recipe.RecordStore = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS ingredients (
	id                  UUID PRIMARY KEY,
	name                TEXT NOT NULL,
	cost_per_unit       DOUBLE PRECISION NOT NULL,
	unit                TEXT NOT NULL,
	category            TEXT NOT NULL DEFAULT '',
	supplier            TEXT NOT NULL DEFAULT '',
	allergen            TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	low_stock_threshold DOUBLE PRECISION,
	current_stock       DOUBLE PRECISION,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS recipes (
	id               UUID PRIMARY KEY,
	name             TEXT NOT NULL,
	category         TEXT NOT NULL DEFAULT '',
	prep_time        INTEGER,
	cuisine          TEXT NOT NULL DEFAULT '',
	instructions     TEXT NOT NULL,
	image_url        TEXT NOT NULL DEFAULT '',
	dietary_tags     TEXT[] NOT NULL DEFAULT '{}',
	ingredients      JSONB NOT NULL,
	cost             DOUBLE PRECISION NOT NULL,
	nutritional_info JSONB,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);`

// Store PostgreSQL 實作
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New 以既有連線建立 Store
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open 連線並（依設定）建立資料表
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(db)
	if cfg.AutoMigrate {
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}
	common.LogInfo("Connected to PostgreSQL", zap.Int("max_open_conns", cfg.MaxOpenConns))
	return s, nil
}

// EnsureSchema 建立所需的資料表
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Ping 健康檢查
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 關閉連線
func (s *Store) Close() error {
	return s.db.Close()
}

// ListIngredients 讀取完整目錄
func (s *Store) ListIngredients(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cost_per_unit, unit, category, supplier, allergen, description,
		       low_stock_threshold, current_stock, created_at, updated_at
		FROM ingredients
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	entries := []catalog.Entry{}
	for rows.Next() {
		var (
			e             catalog.Entry
			lowStock, cur sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.CostPerUnit, &e.BaseUnit, &e.Category, &e.Supplier,
			&e.Allergen, &e.Description, &lowStock, &cur, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		e.LowStockThreshold = nullFloat(lowStock)
		e.CurrentStock = nullFloat(cur)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredients: %w", err)
	}
	return entries, nil
}

// CreateIngredients 在單一交易中建立所有食材
func (s *Store) CreateIngredients(ctx context.Context, entries []catalog.Entry) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	ids := make([]string, len(entries))
	for i, e := range entries {
		id := uuid.New().String()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ingredients (
				id, name, cost_per_unit, unit, category, supplier, allergen, description,
				low_stock_threshold, current_stock, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			id, e.Name, e.CostPerUnit, e.BaseUnit, e.Category, e.Supplier, e.Allergen, e.Description,
			e.LowStockThreshold, e.CurrentStock, now, now)
		if err != nil {
			return nil, fmt.Errorf("insert ingredient %q: %w", e.Name, err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ingredients: %w", err)
	}
	return ids, nil
}

// CreateRecipes 在單一交易中建立所有食譜；任何一筆失敗整批回滾
func (s *Store) CreateRecipes(ctx context.Context, drafts []recipe.Draft) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	ids := make([]string, len(drafts))
	for i, d := range drafts {
		ingredients, err := json.Marshal(d.Ingredients)
		if err != nil {
			return nil, fmt.Errorf("marshal ingredients: %w", err)
		}
		tags := d.DietaryTags
		if tags == nil {
			tags = []string{}
		}

		id := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO recipes (
				id, name, category, prep_time, cuisine, instructions, image_url,
				dietary_tags, ingredients, cost, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			id, d.Name, d.Category, d.PrepTime, d.Cuisine, d.Instructions, d.ImageURL,
			pq.Array(tags), ingredients, d.Cost, now, now)
		if err != nil {
			return nil, fmt.Errorf("insert recipe %q: %w", d.Name, err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit recipes: %w", err)
	}
	return ids, nil
}

// UpdateNutrition 只更新 nutritional_info
func (s *Store) UpdateNutrition(ctx context.Context, id string, info recipe.NutritionResult) error {
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal nutrition: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET nutritional_info = $1, updated_at = $2 WHERE id = $3`,
		payload, s.now(), id)
	if err != nil {
		return fmt.Errorf("update nutrition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update nutrition: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// GetRecipe 讀取單筆食譜
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}

	var (
		rec         recipe.Record
		prepTime    sql.NullInt64
		tags        []string
		ingredients []byte
		nutrition   []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, prep_time, cuisine, instructions, image_url,
		       dietary_tags, ingredients, cost, nutritional_info, created_at, updated_at
		FROM recipes WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Name, &rec.Category, &prepTime, &rec.Cuisine, &rec.Instructions, &rec.ImageURL,
			pq.Array(&tags), &ingredients, &rec.Cost, &nutrition, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if prepTime.Valid {
		pt := int(prepTime.Int64)
		rec.PrepTime = &pt
	}
	if tags == nil {
		tags = []string{}
	}
	rec.DietaryTags = tags
	if err := json.Unmarshal(ingredients, &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if len(nutrition) > 0 {
		var info recipe.NutritionResult
		if err := json.Unmarshal(nutrition, &info); err != nil {
			return nil, fmt.Errorf("decode nutrition: %w", err)
		}
		rec.NutritionalInfo = &info
	}
	return &rec, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
