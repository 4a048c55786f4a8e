/*
Package sale - 销售领域错误定义

每个错误同时匹配两个哨兵:
  - 具体哨兵（ErrInvalidQuantity、ErrSaleNotFound ...）
  - 分类哨兵（shared.ErrInvalidInput、shared.ErrBusinessRule、shared.ErrNotFound ...）

构造函数内部调用 shared.CaptureStack(3)，堆栈从调用 NewXxxError 的位置开始。
*/
package sale

import (
	"errors"
	"fmt"
	"strconv"

	"sales-service/domain/shared"
)

var (
	// ErrSaleNotFound 销售单不存在
	ErrSaleNotFound = errors.New("sale not found")

	// ErrItemNotFound 销售单中不存在该明细
	ErrItemNotFound = errors.New("sale item not found")

	// ErrInvalidQuantity 明细数量小于下限
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrQuantityLimitExceeded 同一商品数量超过上限
	ErrQuantityLimitExceeded = errors.New("quantity limit exceeded")

	// ErrInvalidUnitPrice 单价为负
	ErrInvalidUnitPrice = errors.New("unit price must not be negative")

	// ErrAlreadyCancelled 销售单已取消
	ErrAlreadyCancelled = errors.New("sale is already cancelled")

	// ErrConcurrentModification 乐观锁冲突，调用方可重试
	ErrConcurrentModification = errors.New("sale was modified by another transaction")
)

func NewSaleNotFoundError(saleID int64) error {
	return &saleDomainError{
		sentinel: ErrSaleNotFound,
		kind:     shared.ErrNotFound,
		entity:   "sale",
		message:  "sale not found: " + strconv.FormatInt(saleID, 10),
		stack:    shared.CaptureStack(3),
	}
}

func NewItemNotFoundError(itemID int64) error {
	return &saleDomainError{
		sentinel: ErrItemNotFound,
		kind:     shared.ErrNotFound,
		entity:   "sale_item",
		message:  "sale item not found: " + strconv.FormatInt(itemID, 10),
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidQuantityError(quantity int) error {
	return &saleDomainError{
		sentinel: ErrInvalidQuantity,
		kind:     shared.ErrInvalidInput,
		entity:   "sale_item",
		field:    "quantity",
		message:  fmt.Sprintf("quantity must be at least %d unit, got %d", MinItemQuantity, quantity),
		stack:    shared.CaptureStack(3),
	}
}

// NewQuantityLimitExceededError names the product and the requested quantity.
func NewQuantityLimitExceededError(productName string, quantity int) error {
	return &saleDomainError{
		sentinel: ErrQuantityLimitExceeded,
		kind:     shared.ErrBusinessRule,
		entity:   "sale_item",
		field:    "quantity",
		message: fmt.Sprintf("cannot sell more than %d units of product '%s' in a single sale, requested quantity: %d",
			MaxItemQuantity, productName, quantity),
		stack: shared.CaptureStack(3),
	}
}

func NewInvalidUnitPriceError(productName string) error {
	return &saleDomainError{
		sentinel: ErrInvalidUnitPrice,
		kind:     shared.ErrInvalidInput,
		entity:   "sale_item",
		field:    "unit_price",
		message:  fmt.Sprintf("unit price of product '%s' must not be negative", productName),
		stack:    shared.CaptureStack(3),
	}
}

func NewAlreadyCancelledError(saleNumber string) error {
	return &saleDomainError{
		sentinel: ErrAlreadyCancelled,
		kind:     shared.ErrBusinessRule,
		entity:   "sale",
		message:  "sale " + saleNumber + " is already cancelled",
		stack:    shared.CaptureStack(3),
	}
}

func NewConcurrentModificationError(saleID int64) error {
	return &saleDomainError{
		sentinel: ErrConcurrentModification,
		kind:     shared.ErrConflict,
		entity:   "sale",
		message:  "sale " + strconv.FormatInt(saleID, 10) + " was modified by another transaction, please retry",
		stack:    shared.CaptureStack(3),
	}
}

// saleDomainError 销售领域错误（带堆栈）
type saleDomainError struct {
	sentinel error
	kind     error
	entity   string
	field    string
	message  string
	stack    []uintptr
}

func (e *saleDomainError) Error() string {
	return e.message
}

func (e *saleDomainError) Unwrap() []error {
	return []error{e.sentinel, e.kind}
}

// Field 返回校验失败的字段名，可能为空
func (e *saleDomainError) Field() string {
	return e.field
}

// Stack 实现 shared.Stacker 接口
func (e *saleDomainError) Stack() []string {
	return shared.FormatStack(e.stack)
}
