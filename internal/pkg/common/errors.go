package common

import (
	"errors"
	"fmt"
	"net/http"
)

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // 上游 HTTP 狀態碼（若有）
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 讓 errors.Is / errors.As 可以取得原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
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

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseError 表示 LLM 回應無法解析為 JSON
type ParseError struct {
	Reason  string // 失敗原因
	Snippet string // 回應片段（已截斷）
	Err     error  // 底層解析錯誤
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}
	return "parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError 創建解析錯誤，snippet 會被截斷
func NewParseError(reason, raw string, err error) *ParseError {
	return &ParseError{
		Reason:  reason,
		Snippet: TruncateString(raw, 200),
		Err:     err,
	}
}

// IsParseError 檢查是否為解析錯誤
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeAIService       = "AI_SERVICE_ERROR"
	ErrCodeLLMDisabled     = "LLM_DISABLED"
	ErrCodeEmptyExtraction = "EMPTY_EXTRACTION"
	ErrCodeCacheMiss       = "CACHE_MISS"
	ErrCodeCacheFull       = "CACHE_FULL"
	ErrCodeStageFailure    = "STAGE_FAILURE"
)

// 預定義錯誤
var (
	ErrInvalidInput = NewError(ErrCodeInvalidInput, "無效的輸入", http.StatusBadRequest, nil)

	// 業務錯誤
	ErrLLMDisabled     = NewError(ErrCodeLLMDisabled, "LLM 已停用", http.StatusServiceUnavailable, nil)
	ErrEmptyExtraction = NewError(ErrCodeEmptyExtraction, "LLM 未回傳任何食材", http.StatusUnprocessableEntity, nil)
	ErrCacheMiss       = NewError(ErrCodeCacheMiss, "快取未命中", http.StatusNotFound, nil)
	ErrCacheFull       = NewError(ErrCodeCacheFull, "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrStageFailure    = NewError(ErrCodeStageFailure, "階段執行失敗", http.StatusInternalServerError, nil)
)
