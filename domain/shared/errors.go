/*
Package shared - 领域层共享契约（错误、事件、聚合、规约、工作单元）

错误分类（kind 哨兵）:
  - ErrInvalidInput   参数校验失败（例如数量小于 1）
  - ErrBusinessRule   违反业务规则（例如数量超过上限、重复取消）
  - ErrNotFound       资源不存在
  - ErrConflict       并发修改冲突（乐观锁）
  - ErrPublishFailed  持久化已成功但事件发布失败

子领域错误同时 Unwrap 到具体哨兵与 kind 哨兵，调用方可以按任意粒度使用 errors.Is() 判断。

堆栈捕获策略:
  - 捕获时机：错误创建时（构造函数内）
  - 格式化时机：日志打印时（Stack() 方法）
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// 哨兵错误 (Sentinel Errors)
// ============================================================================

var (
	// ErrNotFound 资源未找到
	ErrNotFound = errors.New("not found")

	// ErrConflict 资源冲突（并发修改）
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput 无效输入
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusinessRule 违反业务规则
	ErrBusinessRule = errors.New("business rule violation")

	// ErrPublishFailed 事件发布失败
	ErrPublishFailed = errors.New("event publish failed")
)

// ============================================================================
// 领域错误结构体 (Domain Error)
// ============================================================================

// DomainError 携带业务上下文和堆栈的结构化错误
type DomainError struct {
	// Err 底层哨兵错误，用于 errors.Is() 判断
	Err error

	// Entity 发生错误的实体名称（如 "sale", "sale_item"）
	Entity string

	// Message 人类可读的错误描述
	Message string

	// Field 可选：校验失败的字段
	Field string

	stack []uintptr
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Stack 按需格式化堆栈
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// ============================================================================
// 堆栈捕获辅助函数
// ============================================================================

// CaptureStack 捕获当前调用栈
// skip: 跳过的帧数（通常为 3：Callers, CaptureStack, NewXxxError）
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack 格式化堆栈帧，过滤 runtime 内部帧，最多返回 10 帧
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) >= 10 {
			break
		}
	}
	return result
}

// ============================================================================
// 领域错误构造函数
// ============================================================================

// NewNotFoundError 创建"未找到"领域错误
func NewNotFoundError(entity, message string) error {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

// NewConflictError 创建"冲突"领域错误
func NewConflictError(entity, message string) error {
	return &DomainError{
		Err:     ErrConflict,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

// NewValidationError 创建"校验失败"领域错误
func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// NewBusinessRuleError 创建"违反业务规则"领域错误
func NewBusinessRuleError(entity, reason string) error {
	return &DomainError{
		Err:     ErrBusinessRule,
		Entity:  entity,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// ============================================================================
// Stacker 接口
// ============================================================================

// Stacker 可提供堆栈的错误，API 层用它统一提取发生点
type Stacker interface {
	Stack() []string
}
