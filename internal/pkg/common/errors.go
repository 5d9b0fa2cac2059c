package common

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string   `json:"code"`              // 錯誤代碼
	Message string   `json:"message"`           // 錯誤信息
	Details []string `json:"details,omitempty"` // 詳細信息
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓 errors.Is(err, ErrNotFound) 對包裝後的錯誤也成立
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 以預定義錯誤包裝底層錯誤
func Wrap(base *CustomError, err error) *CustomError {
	return NewError(base.Code, base.Message, base.Status, err)
}

// ValidationError 表示驗證錯誤，可攜帶多筆訊息
type ValidationError struct {
	Messages []string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(messages ...string) error {
	return &ValidationError{
		Messages: messages,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationMessages 取出驗證錯誤的訊息清單
func ValidationMessages(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return nil
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeValidation      = "VALIDATION_FAILED" // 422
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeTooLarge        = "PAYLOAD_TOO_LARGE" // 413

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "invalid request", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrTooManyRows     = NewError(ErrCodeTooLarge, "too many rows in import", http.StatusRequestEntityTooLarge, nil)
	ErrPayloadTooLarge = NewError(ErrCodeTooLarge, "request body too large", http.StatusRequestEntityTooLarge, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "service unavailable", http.StatusServiceUnavailable, nil)

	// 業務錯誤
	ErrCacheMiss      = NewError("CACHE_MISS", "cache miss", http.StatusNotFound, nil)
	ErrCacheFull      = NewError("CACHE_FULL", "cache is full", http.StatusServiceUnavailable, nil)
	ErrAIServiceError = NewError("AI_SERVICE_ERROR", "AI service error", http.StatusBadGateway, nil)
)

// StatusOf 取得錯誤對應的 HTTP 狀態碼
func StatusOf(err error) int {
	if IsValidationError(err) {
		return http.StatusUnprocessableEntity
	}
	var ce *CustomError
	if errors.As(err, &ce) && ce.Status != 0 {
		return ce.Status
	}
	return http.StatusInternalServerError
}
