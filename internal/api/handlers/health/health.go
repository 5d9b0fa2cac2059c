package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-importer/internal/core/ai/queue"
	"recipe-importer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// QueueReporter 提供補全隊列狀態
type QueueReporter interface {
	Status() queue.Status
}

// Check 就緒檢查項目（例如資料庫 ping）
type Check func(ctx context.Context) error

// Handler 健康檢查處理器
type Handler struct {
	version string
	queue   QueueReporter
	checks  map[string]Check
	timeout time.Duration
}

// NewHandler 創建健康檢查處理器；queue 可為 nil
func NewHandler(version string, q QueueReporter, checks map[string]Check) *Handler {
	return &Handler{
		version: version,
		queue:   q,
		checks:  checks,
		timeout: 3 * time.Second,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		st := h.queue.Status()
		response.Queue = &st
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：所有依賴可用且補全隊列未關閉
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if h.queue != nil && h.queue.Status().Closed {
		failures["enrichment_queue"] = "closed"
	}

	if len(failures) > 0 {
		common.LogWarn("Readiness check failed", zap.Any("failures", failures))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not_ready",
			"failures": failures,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
