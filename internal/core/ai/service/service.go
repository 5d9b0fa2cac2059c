package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"recipe-importer/internal/core/ai/cache"
	"recipe-importer/internal/core/ai/provider"
	"recipe-importer/internal/pkg/common"

	"go.uber.org/zap"
)

// Response AI 回應
type Response struct {
	Content  string
	Model    string
	CacheHit bool
}

// Service AI 服務：統一 prompt、查快取、呼叫提供者
type Service struct {
	provider  provider.Provider
	cache     cache.Cache
	maxTokens int
}

// NewService 創建 AI 服務；cache 可為 nil
func NewService(p provider.Provider, c cache.Cache, maxTokens int) *Service {
	return &Service{
		provider:  p,
		cache:     c,
		maxTokens: maxTokens,
	}
}

// AcceptFunc 檢查模型回覆是否可用；回傳錯誤的回覆不會寫入快取
type AcceptFunc func(content string) error

// ProcessRequest 統一對外方法；accept 為 nil 時接受任何回覆
func (s *Service) ProcessRequest(ctx context.Context, system, prompt string, accept AcceptFunc) (*Response, error) {
	if accept == nil {
		accept = func(string) error { return nil }
	}

	// 統一 prompt 格式，合併連續空白，確保快取 key 一致
	prompt = normalizePrompt(prompt)
	cacheKey := system + "\x00" + prompt

	if s.cache != nil {
		val, err := s.cache.Get(ctx, cacheKey)
		switch {
		case err == nil && val != "":
			aerr := accept(val)
			if aerr == nil {
				return &Response{Content: val, Model: s.provider.Model(), CacheHit: true}, nil
			}
			common.LogWarn("Discarding unusable cached response", zap.Error(aerr))
		case err != nil && !errors.Is(err, common.ErrCacheMiss):
			common.LogWarn("Cache lookup failed", zap.Error(err))
		}
	}

	req := provider.UserPrompt(prompt, s.maxTokens)
	req.System = system

	start := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	common.LogAICall(s.provider.Model(), time.Since(start), err)
	if err != nil {
		return nil, common.Wrap(common.ErrAIServiceError, err)
	}

	if err := accept(resp.Content); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, resp.Content); err != nil {
			common.LogWarn("Cache store failed", zap.Error(err))
		}
	}

	return &Response{Content: resp.Content, Model: resp.Model}, nil
}

// Model 回傳提供者模型名稱
func (s *Service) Model() string {
	return s.provider.Model()
}

// Close 關閉提供者與快取
func (s *Service) Close() error {
	var errs []error
	if err := s.provider.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalizePrompt(prompt string) string {
	return strings.Join(strings.Fields(prompt), " ")
}
