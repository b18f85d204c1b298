package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// 业务错误为封闭的类型化集合,调用方通过 errors.As 识别。
// 核心不吞错:每个失败的变更都保持实体原状。

// ValidationError 入参校验错误,在任何状态变更之前拦截
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("参数错误: %s %s", e.Field, e.Msg)
	}
	return "参数错误: " + e.Msg
}

// NotFoundError 引用的实体不存在
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// InvalidStateTransition 当前状态不允许目标流转
type InvalidStateTransition struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("%s状态不允许流转: %s -> %s", e.Entity, e.From, e.To)
}

// InvalidBatchStateError 批次状态不满足操作前置条件
type InvalidBatchStateError struct {
	BatchID string
	Status  string
}

func (e *InvalidBatchStateError) Error() string {
	return fmt.Sprintf("批次状态不允许操作: %s (batch %s)", e.Status, e.BatchID)
}

// OverDeliveryError 交付数量超出合同承诺
type OverDeliveryError struct {
	ItemID     string
	Contracted decimal.Decimal
	Delivered  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *OverDeliveryError) Error() string {
	return fmt.Sprintf("超出合同数量: 合同%s 已交付%s 本次%s (item %s)",
		e.Contracted, e.Delivered, e.Requested, e.ItemID)
}

// InsufficientQuantityError 批次现存数量不足以扣减
type InsufficientQuantityError struct {
	BatchID   string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("批次数量不足: 需要%s, 可用%s (batch %s)", e.Requested, e.Available, e.BatchID)
}

// ConcurrencyConflictError 乐观锁版本冲突,调用方可重试
type ConcurrencyConflictError struct {
	Entity string
	ID     string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("并发冲突: %s %s", e.Entity, e.ID)
}
