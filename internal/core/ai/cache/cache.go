package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Cache AI 回應快取；未命中時回傳 common.ErrCacheMiss
type Cache interface {
	Get(ctx context.Context, prompt string) (string, error)
	Set(ctx context.Context, prompt, value string) error
	Close() error
}

// hashString 計算字符串的 SHA-256 哈希值
func hashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
