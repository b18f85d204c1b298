package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebitPurpose 扣减用途,决定批次耗尽时的终态
type DebitPurpose string

const (
	DebitPurposeProcessing DebitPurpose = "PROCESSING" // 投入加工,耗尽后 CONSUMED
	DebitPurposeTransfer   DebitPurpose = "TRANSFER"   // 调拨出库,耗尽后 TRANSFERRED
)

// debitRetryLimit 乐观锁冲突时引擎内部的重试上限,超出后向调用方抛出冲突
const debitRetryLimit = 3

// AllocationService 分配引擎:批次 CurrentWeight 与状态的唯一变更入口。
// 所有扣减都通过版本号 CAS 落库,同一批次上的并发扣减至多一个成功提交,
// 落败方重读后要么重试成功、要么观察到余量不足。
type AllocationService struct {
	batchRepo *repository.BatchRepository
}

func NewAllocationService(batchRepo *repository.BatchRepository) *AllocationService {
	return &AllocationService{batchRepo: batchRepo}
}

// ReserveAndDebit 原子扣减批次数量。
// 前置条件:批次状态为 APPROVED 或 IN_PROCESS,且 CurrentWeight >= qty。
// 扣减与状态翻转对并发调用方不可分割:扣空后按用途进入 CONSUMED / TRANSFERRED,
// 加工用途的部分扣减将批次标记为 IN_PROCESS。
func (s *AllocationService) ReserveAndDebit(batchID string, qty decimal.Decimal, purpose DebitPurpose) (*entity.CommodityBatch, error) {
	if !qty.IsPositive() {
		return nil, &entity.ValidationError{Field: "quantity", Msg: "必须大于0"}
	}

	for attempt := 0; attempt < debitRetryLimit; attempt++ {
		batch, err := s.batchRepo.GetByID(batchID)
		if err != nil {
			return nil, err
		}
		if !batch.Debitable() {
			return nil, &entity.InvalidBatchStateError{BatchID: batch.ID, Status: batch.Status}
		}
		if qty.GreaterThan(batch.CurrentWeight) {
			return nil, &entity.InsufficientQuantityError{
				BatchID:   batch.ID,
				Available: batch.CurrentWeight,
				Requested: qty,
			}
		}

		batch.CurrentWeight = batch.CurrentWeight.Sub(qty)
		if batch.CurrentWeight.IsZero() {
			if purpose == DebitPurposeTransfer {
				batch.Status = entity.BatchStatusTransferred
			} else {
				batch.Status = entity.BatchStatusConsumed
			}
		} else if purpose == DebitPurposeProcessing {
			batch.Status = entity.BatchStatusInProcess
		}

		err = s.batchRepo.UpdateWithVersion(batch)
		if err == nil {
			return batch, nil
		}
		var conflict *entity.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			return nil, fmt.Errorf("扣减批次失败: %w", err)
		}
		// 版本冲突:重读后重试
	}
	return nil, &entity.ConcurrencyConflictError{Entity: "batch", ID: batchID}
}

// CreditParams 新批次入账参数
type CreditParams struct {
	Source        *entity.CommodityBatch
	Quantity      decimal.Decimal
	WarehouseID   string
	Status        string
	BatchNo       string
	CommodityType string  // 为空时继承来源批次
	SourceOrderID *string // 加工产出时指向加工单
	CreatedBy     string
}

// CreditNewBatch 以血缘指向来源批次的方式创建新批次。
// 与 ReserveAndDebit 配对使用:同一逻辑事务内所有入账重量之和
// 等于扣减量(调拨),或不大于扣减量且差额记为显式损耗(加工)。
func (s *AllocationService) CreditNewBatch(p CreditParams) (*entity.CommodityBatch, error) {
	if !p.Quantity.IsPositive() {
		return nil, &entity.ValidationError{Field: "quantity", Msg: "必须大于0"}
	}

	commodityType := p.CommodityType
	if commodityType == "" {
		commodityType = p.Source.CommodityType
	}
	parentID := p.Source.ID

	batch := &entity.CommodityBatch{
		ID:             uuid.New().String(),
		BatchNo:        p.BatchNo,
		CommodityType:  commodityType,
		Grade:          p.Source.Grade,
		SupplierID:     p.Source.SupplierID,
		WarehouseID:    p.WarehouseID,
		ReceivedWeight: p.Quantity,
		CurrentWeight:  p.Quantity,
		Status:         p.Status,
		UnitCost:       p.Source.UnitCost,
		Currency:       p.Source.Currency,
		ParentBatchID:  &parentID,
		SourceOrderID:  p.SourceOrderID,
		CreatedBy:      p.CreatedBy,
		Version:        1,
	}
	if err := s.batchRepo.Create(batch); err != nil {
		return nil, fmt.Errorf("创建批次失败: %w", err)
	}
	return batch, nil
}

// CreditBack 取消补偿:把已扣减的数量退回来源批次。
// 退回后余量恢复可用,批次回到 APPROVED;取消永不销毁库存。
func (s *AllocationService) CreditBack(batchID string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return &entity.ValidationError{Field: "quantity", Msg: "必须大于0"}
	}

	for attempt := 0; attempt < debitRetryLimit; attempt++ {
		batch, err := s.batchRepo.GetByID(batchID)
		if err != nil {
			return err
		}
		restored := batch.CurrentWeight.Add(qty)
		if restored.GreaterThan(batch.ReceivedWeight) {
			return &entity.ValidationError{Field: "quantity", Msg: "退回数量超出原始重量"}
		}
		batch.CurrentWeight = restored
		batch.Status = entity.BatchStatusApproved

		err = s.batchRepo.UpdateWithVersion(batch)
		if err == nil {
			return nil
		}
		var conflict *entity.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			return fmt.Errorf("退回批次数量失败: %w", err)
		}
	}
	return &entity.ConcurrencyConflictError{Entity: "batch", ID: batchID}
}

// NewBatchNo 生成批次号,前缀区分来源(GR 收货 / TR 调拨 / PX 加工产出)
func NewBatchNo(prefix string) string {
	now := time.Now()
	return fmt.Sprintf("%s-%s%04d", prefix, now.Format("20060102"), now.UnixNano()%10000)
}
