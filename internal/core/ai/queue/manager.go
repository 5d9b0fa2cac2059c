package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"recipe-importer/internal/core/recipe"
	"recipe-importer/internal/infrastructure/config"
	"recipe-importer/internal/pkg/common"

	"go.uber.org/zap"
)

// NutritionWriter 補全結果的寫入端
type NutritionWriter interface {
	UpdateNutrition(ctx context.Context, id string, info recipe.NutritionResult) error
}

// Status 隊列狀態
type Status struct {
	QueueLength  int   `json:"queue_length"`
	MaxQueueSize int   `json:"max_queue_size"`
	Workers      int   `json:"workers"`
	Processed    int64 `json:"processed_count"`
	Succeeded    int64 `json:"succeeded_count"`
	Failed       int64 `json:"failed_count"`
	Dropped      int64 `json:"dropped_count"`
	Closed       bool  `json:"closed"`
}

// Manager 營養補全的背景工作池
//
// Fire 不阻塞；每個工作獨立執行，失敗只記錄不重試。
type Manager struct {
	estimator       recipe.Estimator
	writer          NutritionWriter
	queue           chan recipe.EnrichmentJob
	workers         int
	estimateTimeout time.Duration
	updateTimeout   time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc

	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewManager 創建並啟動工作池
func NewManager(cfg config.EnrichmentConfig, estimator recipe.Estimator, writer NutritionWriter) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		estimator:       estimator,
		writer:          writer,
		queue:           make(chan recipe.EnrichmentJob, size),
		workers:         workers,
		estimateTimeout: cfg.EstimateTimeout,
		updateTimeout:   cfg.UpdateTimeout,
		baseCtx:         ctx,
		cancel:          cancel,
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	common.LogInfo("Enrichment queue started",
		zap.Int("workers", workers),
		zap.Int("max_queue_size", size),
	)
	return m
}

// Fire 將工作放入隊列並立即返回；隊列已滿或已關閉時丟棄並回傳 false
func (m *Manager) Fire(job recipe.EnrichmentJob) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		m.dropped.Add(1)
		common.LogWarn("Enrichment queue closed, job dropped", zap.String("recipe_id", job.RecipeID))
		return false
	}

	select {
	case m.queue <- job:
		return true
	default:
		m.dropped.Add(1)
		common.LogWarn("Enrichment queue full, job dropped",
			zap.String("recipe_id", job.RecipeID),
			zap.Int("queue_length", len(m.queue)),
		)
		return false
	}
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for job := range m.queue {
		m.process(id, job)
	}
}

// process 估算後寫回單筆食譜；任何失敗都只記錄
func (m *Manager) process(worker int, job recipe.EnrichmentJob) {
	defer m.processed.Add(1)
	defer func() {
		if r := recover(); r != nil {
			m.failed.Add(1)
			common.LogError("Enrichment job panicked",
				zap.String("recipe_id", job.RecipeID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := m.run(job); err != nil {
		m.failed.Add(1)
		common.LogWarn("Enrichment failed",
			zap.Int("worker", worker),
			zap.String("recipe_id", job.RecipeID),
			zap.String("recipe", job.RecipeName),
			zap.Error(err),
		)
		return
	}

	m.succeeded.Add(1)
	common.LogDebug("Enrichment stored",
		zap.Int("worker", worker),
		zap.String("recipe_id", job.RecipeID),
	)
}

func (m *Manager) run(job recipe.EnrichmentJob) error {
	estCtx, cancel := m.withTimeout(m.estimateTimeout)
	info, err := m.estimator.Estimate(estCtx, job.RecipeName, job.IngredientSummary)
	cancel()
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	if info == nil {
		return fmt.Errorf("estimate: empty result")
	}

	updCtx, cancel := m.withTimeout(m.updateTimeout)
	defer cancel()
	if err := m.writer.UpdateNutrition(updCtx, job.RecipeID, *info); err != nil {
		return fmt.Errorf("update nutrition: %w", err)
	}
	return nil
}

func (m *Manager) withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(m.baseCtx)
	}
	return context.WithTimeout(m.baseCtx, d)
}

// Status 獲取隊列狀態
func (m *Manager) Status() Status {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()

	return Status{
		QueueLength:  len(m.queue),
		MaxQueueSize: cap(m.queue),
		Workers:      m.workers,
		Processed:    m.processed.Load(),
		Succeeded:    m.succeeded.Load(),
		Failed:       m.failed.Load(),
		Dropped:      m.dropped.Load(),
		Closed:       closed,
	}
}

// Close 停止接收新工作並等待既有工作完成；ctx 到期時中止進行中的工作
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		common.LogInfo("Enrichment queue drained", zap.Int64("processed", m.processed.Load()))
		return nil
	case <-ctx.Done():
		m.cancel()
		common.LogWarn("Enrichment queue close timed out",
			zap.Int("pending", len(m.queue)),
		)
		return ctx.Err()
	}
}

var _ recipe.Dispatcher = (*Manager)(nil)
