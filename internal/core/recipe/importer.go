package recipe

import (
	"context"
	"fmt"
	"time"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	commitFailureLabel  = "batch commit"
	catalogFailureLabel = "ingredient catalog"

	defaultCommitTimeout = 30 * time.Second
)

// ImporterOptions 匯入器設定
//
// CommitTimeout 同時限制目錄讀取與批次寫入，兩者各自計時。
type ImporterOptions struct {
	DuplicatePolicy catalog.DuplicatePolicy
	CommitTimeout   time.Duration
}

// Importer 食譜批次匯入
type Importer struct {
	catalog    *catalog.Service
	records    RecordStore
	dispatcher Dispatcher
	opts       ImporterOptions
}

// NewImporter 創建匯入器；dispatcher 可為 nil（不做營養補全）
func NewImporter(cat catalog.Store, records RecordStore, dispatcher Dispatcher, opts ImporterOptions) *Importer {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = defaultCommitTimeout
	}
	if opts.DuplicatePolicy == "" {
		opts.DuplicatePolicy = catalog.DuplicateLastWins
	}
	return &Importer{
		catalog:    catalog.NewService(cat, opts.DuplicatePolicy),
		records:    records,
		dispatcher: dispatcher,
		opts:       opts,
	}
}

// ImportRecipes 驗證、計價並以單一原子寫入提交所有合格的列
//
// 呼叫端取消不會中斷匯入；目錄讀取與提交各有逾時。營養補全在提交成功、取得 ID 之後才派送，
// 且不等待其完成。
func (im *Importer) ImportRecipes(ctx context.Context, rows []ImportRow) ImportResult {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	idx, err := im.loadIndex(ctx)
	if err != nil {
		common.LogError("Failed to load ingredient catalog", zap.Error(err), zap.Int("rows", len(rows)))
		return failedImport(len(rows), catalogFailureLabel, "failed to load ingredient catalog: "+err.Error(), nil)
	}

	var (
		accepted []RowOutcome
		errors   = []ImportErrorDetail{}
	)
	for i, row := range rows {
		outcome := EvaluateRow(i, row, idx)
		if !outcome.Accepted() {
			common.LogDebug("Row rejected",
				zap.Int("row", i),
				zap.String("recipe", outcome.Label),
				zap.Strings("errors", outcome.Errors),
			)
			errors = append(errors, outcome.Detail())
			continue
		}
		accepted = append(accepted, outcome)
	}

	if len(accepted) == 0 {
		common.LogInfo("Import finished",
			zap.Int("rows", len(rows)),
			zap.Int("imported", 0),
			zap.Int("errors", len(errors)),
			zap.Duration("耗時", time.Since(start)),
		)
		return ImportResult{
			Success:       len(errors) == 0,
			ImportedCount: 0,
			ErrorCount:    len(errors),
			Errors:        errors,
		}
	}

	ids, err := im.commit(ctx, accepted)
	if err != nil {
		common.LogError("Failed to commit recipe batch",
			zap.Error(err),
			zap.Int("rows", len(rows)),
			zap.Int("accepted", len(accepted)),
		)
		return failedImport(len(rows), commitFailureLabel, "failed to save recipe batch: "+err.Error(), errors)
	}

	im.dispatch(ids, accepted)

	common.LogInfo("Import finished",
		zap.Int("rows", len(rows)),
		zap.Int("imported", len(ids)),
		zap.Int("errors", len(errors)),
		zap.Duration("耗時", time.Since(start)),
	)
	return ImportResult{
		Success:       true,
		ImportedCount: len(ids),
		ErrorCount:    len(errors),
		Errors:        errors,
	}
}

// loadIndex 在逾時限制內讀取目錄快照
func (im *Importer) loadIndex(ctx context.Context) (*catalog.Index, error) {
	ctx, cancel := context.WithTimeout(ctx, im.opts.CommitTimeout)
	defer cancel()
	return im.catalog.LoadIndex(ctx)
}

// commit 在逾時限制內寫入所有草稿；ID 數量不符也視為失敗
func (im *Importer) commit(ctx context.Context, accepted []RowOutcome) ([]string, error) {
	drafts := make([]Draft, len(accepted))
	for i, o := range accepted {
		drafts[i] = o.Draft
	}

	ctx, cancel := context.WithTimeout(ctx, im.opts.CommitTimeout)
	defer cancel()

	ids, err := im.records.CreateRecipes(ctx, drafts)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(drafts) {
		return nil, fmt.Errorf("store returned %d ids for %d recipes", len(ids), len(drafts))
	}
	return ids, nil
}

// dispatch 為每筆已提交的食譜派送營養補全
func (im *Importer) dispatch(ids []string, accepted []RowOutcome) {
	if im.dispatcher == nil {
		return
	}
	for i, id := range ids {
		job := EnrichmentJob{
			RecipeID:          id,
			RecipeName:        accepted[i].Draft.Name,
			IngredientSummary: accepted[i].Summary,
		}
		if job.IngredientSummary == "" {
			common.LogDebug("Skipping enrichment, empty ingredient summary", zap.String("recipe_id", id))
			continue
		}
		im.dispatcher.Fire(job)
	}
}

// failedImport 整批視為失敗：合成的 rowIndex -1 錯誤放在最前面，所有列都計為失敗
func failedImport(rowCount int, label, message string, rowErrors []ImportErrorDetail) ImportResult {
	errors := make([]ImportErrorDetail, 0, len(rowErrors)+1)
	errors = append(errors, ImportErrorDetail{RowIndex: -1, RecipeName: label, Errors: []string{message}})
	errors = append(errors, rowErrors...)
	return ImportResult{
		Success:       false,
		ImportedCount: 0,
		ErrorCount:    rowCount,
		Errors:        errors,
	}
}
