package service

import (
	"fmt"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferService 调拨引擎:跨仓移动批次数量,目的仓生成血缘后继批次。
// 部分调拨保留来源批次;全量调拨后来源批次归零并进入 TRANSFERRED,
// 记录保留供血缘查询。
type TransferService struct {
	batchRepo     *repository.BatchRepository
	warehouseRepo *repository.WarehouseRepository
	movementRepo  *repository.MovementRepository
	allocation    *AllocationService
}

func NewTransferService(br *repository.BatchRepository, wr *repository.WarehouseRepository, mr *repository.MovementRepository, alloc *AllocationService) *TransferService {
	return &TransferService{batchRepo: br, warehouseRepo: wr, movementRepo: mr, allocation: alloc}
}

type TransferRequest struct {
	DestWarehouseID string          `json:"dest_warehouse_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// Transfer 调拨:扣减来源批次,在目的仓入账等量新批次,追加调拨流水。
// 调拨不改变质检状态:只有质检通过的批次可被扣减,目的批次直接 APPROVED。
func (s *TransferService) Transfer(batchID string, req TransferRequest, userID string) (*entity.BatchMovement, *entity.CommodityBatch, error) {
	source, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.warehouseRepo.GetByID(req.DestWarehouseID); err != nil {
		return nil, nil, err
	}
	if req.DestWarehouseID == source.WarehouseID {
		return nil, nil, &entity.ValidationError{Field: "dest_warehouse_id", Msg: "目的仓与来源仓相同"}
	}

	sourceWarehouseID := source.WarehouseID

	source, err = s.allocation.ReserveAndDebit(batchID, req.Quantity, DebitPurposeTransfer)
	if err != nil {
		return nil, nil, err
	}

	dest, err := s.allocation.CreditNewBatch(CreditParams{
		Source:      source,
		Quantity:    req.Quantity,
		WarehouseID: req.DestWarehouseID,
		Status:      entity.BatchStatusApproved,
		BatchNo:     NewBatchNo("TR"),
		CreatedBy:   userID,
	})
	if err != nil {
		// 目的批次未落库,退回来源扣减,守恒不破
		if cbErr := s.allocation.CreditBack(batchID, req.Quantity); cbErr != nil {
			return nil, nil, fmt.Errorf("调拨入账失败且退回失败: %v: %w", cbErr, err)
		}
		return nil, nil, err
	}

	move := &entity.BatchMovement{
		ID:                uuid.New().String(),
		BatchID:           source.ID,
		SourceWarehouseID: sourceWarehouseID,
		DestWarehouseID:   req.DestWarehouseID,
		Quantity:          req.Quantity,
		DestBatchID:       dest.ID,
		CreatedBy:         userID,
	}
	if err := s.movementRepo.Create(move); err != nil {
		return nil, nil, fmt.Errorf("记录调拨流水失败: %w", err)
	}
	return move, dest, nil
}

// Movements 查询批次相关的调拨流水
func (s *TransferService) Movements(batchID string) ([]entity.BatchMovement, error) {
	if _, err := s.batchRepo.GetByID(batchID); err != nil {
		return nil, err
	}
	return s.movementRepo.ListByBatch(batchID)
}

func (s *TransferService) ListMovements(page, size int) ([]entity.BatchMovement, int64, error) {
	return s.movementRepo.List(page, size)
}

// TransferredTotal 批次已调出的总量(按流水汇总)
func (s *TransferService) TransferredTotal(batchID string) (decimal.Decimal, error) {
	moves, err := s.movementRepo.ListByBatch(batchID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, m := range moves {
		if m.BatchID == batchID {
			total = total.Add(m.Quantity)
		}
	}
	return total, nil
}
