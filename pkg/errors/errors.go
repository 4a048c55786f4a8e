package errors

import (
	"errors"
	"fmt"
	"net/http"

	"sales-service/domain/sale"
	"sales-service/domain/shared"
)

// ErrorCode 错误码
type ErrorCode string

const (
	// 通用错误码
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"

	// 业务错误码
	CodeBusinessRule         ErrorCode = "BUSINESS_RULE_VIOLATION"
	CodeQuantityLimit        ErrorCode = "QUANTITY_LIMIT_EXCEEDED"
	CodeSaleAlreadyCancelled ErrorCode = "SALE_ALREADY_CANCELLED"
	CodeSaleNotFound         ErrorCode = "SALE_NOT_FOUND"
	CodeSaleItemNotFound     ErrorCode = "SALE_ITEM_NOT_FOUND"
	CodeConcurrentModify     ErrorCode = "CONCURRENT_MODIFICATION"
	CodeEventPublishFailed   ErrorCode = "EVENT_PUBLISH_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode 返回对应的HTTP状态码
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound, CodeSaleNotFound, CodeSaleItemNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeConcurrentModify:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeBusinessRule, CodeQuantityLimit, CodeSaleAlreadyCancelled:
		return http.StatusUnprocessableEntity
	case CodeEventPublishFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// Is 检查是否为特定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// FromDomainError 将领域 / 应用层错误映射为 AppError。
// 先匹配具体哨兵，再匹配分类哨兵；都不匹配时归为内部错误。
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := err.Error()
	switch {
	case errors.Is(err, shared.ErrPublishFailed):
		return Wrap(err, CodeEventPublishFailed, "sale was saved but its events could not be published")
	case errors.Is(err, sale.ErrSaleNotFound):
		return Wrap(err, CodeSaleNotFound, msg)
	case errors.Is(err, sale.ErrItemNotFound):
		return Wrap(err, CodeSaleItemNotFound, msg)
	case errors.Is(err, sale.ErrQuantityLimitExceeded):
		return Wrap(err, CodeQuantityLimit, msg)
	case errors.Is(err, sale.ErrAlreadyCancelled):
		return Wrap(err, CodeSaleAlreadyCancelled, msg)
	case errors.Is(err, shared.ErrConflict):
		return Wrap(err, CodeConcurrentModify, msg)
	case errors.Is(err, shared.ErrInvalidInput):
		return Wrap(err, CodeValidation, msg)
	case errors.Is(err, shared.ErrBusinessRule):
		return Wrap(err, CodeBusinessRule, msg)
	case errors.Is(err, shared.ErrNotFound):
		return Wrap(err, CodeNotFound, msg)
	default:
		return Wrap(err, CodeInternal, "internal server error")
	}
}
