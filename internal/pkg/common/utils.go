package common

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// WriteError 將錯誤轉為統一的 JSON 錯誤響應並中止請求
func WriteError(c *gin.Context, err error) {
	status := StatusOf(err)
	resp := ErrorResponse{
		Code:    ErrCodeInternalError,
		Message: err.Error(),
	}

	var ce *CustomError
	switch {
	case IsValidationError(err):
		resp.Code = ErrCodeValidation
		resp.Message = "validation failed"
		resp.Details = ValidationMessages(err)
	case errors.As(err, &ce):
		resp.Code = ce.Code
		resp.Message = ce.Message
		if ce.Err != nil && status < 500 {
			resp.Details = []string{ce.Err.Error()}
		}
	}

	c.AbortWithStatusJSON(status, resp)
}
