package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// receiptIdemTTL 收货幂等缓存的保留时间
const receiptIdemTTL = 24 * time.Hour

// ReceiptService 收货处理:把物理到货转为新批次,可选地核销合同明细。
// 幂等以 batch_no 唯一索引为准,redis 仅作为重试快路径,可为 nil。
type ReceiptService struct {
	batchRepo     *repository.BatchRepository
	warehouseRepo *repository.WarehouseRepository
	supplierRepo  *repository.SupplierRepository
	contractSvc   *ContractService
	rdb           *redis.Client
}

func NewReceiptService(br *repository.BatchRepository, wr *repository.WarehouseRepository, sr *repository.SupplierRepository, cs *ContractService, rdb *redis.Client) *ReceiptService {
	return &ReceiptService{batchRepo: br, warehouseRepo: wr, supplierRepo: sr, contractSvc: cs, rdb: rdb}
}

type ReceiveGoodsRequest struct {
	CommodityType  string          `json:"commodity_type" binding:"required"`
	Grade          string          `json:"grade"`
	SupplierID     string          `json:"supplier_id" binding:"required"`
	WarehouseID    string          `json:"warehouse_id" binding:"required"`
	Weight         decimal.Decimal `json:"weight"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Currency       string          `json:"currency"`
	ContractItemID string          `json:"contract_item_id"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// ReceiveGoods 收货入批。
// 关联合同明细时先在合同侧核销交付(超量直接失败,不建批次),
// 批次落库失败则回退合同侧核销,两侧不留半截写入。
func (s *ReceiptService) ReceiveGoods(ctx context.Context, req ReceiveGoodsRequest, userID string) (*entity.CommodityBatch, error) {
	if !req.Weight.IsPositive() {
		return nil, &entity.ValidationError{Field: "weight", Msg: "必须大于0"}
	}
	if req.UnitCost.IsNegative() {
		return nil, &entity.ValidationError{Field: "unit_cost", Msg: "不能为负"}
	}
	if _, err := s.warehouseRepo.GetByID(req.WarehouseID); err != nil {
		return nil, err
	}
	if _, err := s.supplierRepo.GetByID(req.SupplierID); err != nil {
		return nil, err
	}

	batchNo := deriveBatchNo(req.IdempotencyKey)

	// 幂等:同一令牌重试直接返回已有批次
	if req.IdempotencyKey != "" {
		if existing := s.lookupIdempotent(ctx, req.IdempotencyKey, batchNo); existing != nil {
			return existing, nil
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	batch := &entity.CommodityBatch{
		ID:             uuid.New().String(),
		BatchNo:        batchNo,
		CommodityType:  req.CommodityType,
		Grade:          req.Grade,
		SupplierID:     req.SupplierID,
		WarehouseID:    req.WarehouseID,
		ReceivedWeight: req.Weight,
		CurrentWeight:  req.Weight,
		Status:         entity.BatchStatusReceived,
		UnitCost:       req.UnitCost,
		Currency:       currency,
		CreatedBy:      userID,
		Version:        1,
	}

	// 合同侧先行:核销提交成功之后批次才可见
	if req.ContractItemID != "" {
		item, err := s.contractSvc.RecordDelivery(req.ContractItemID, req.Weight)
		if err != nil {
			return nil, err
		}
		batch.ContractID = &item.ContractID
		itemID := item.ID
		batch.ContractItemID = &itemID
	}

	if err := s.batchRepo.Create(batch); err != nil {
		if req.ContractItemID != "" {
			// 批次未落库,回退合同侧核销
			if revErr := s.contractSvc.ReverseDelivery(req.ContractItemID, req.Weight); revErr != nil {
				return nil, fmt.Errorf("创建批次失败且交付回退失败: %v: %w", revErr, err)
			}
		}
		return nil, fmt.Errorf("创建批次失败: %w", err)
	}

	if req.IdempotencyKey != "" && s.rdb != nil {
		s.rdb.SetNX(ctx, idemKey(req.IdempotencyKey), batch.ID, receiptIdemTTL)
	}
	return batch, nil
}

// Approve 质检通过,批次进入可动用状态
func (s *ReceiptService) Approve(batchID string) (*entity.CommodityBatch, error) {
	return s.setQuality(batchID, entity.BatchStatusApproved)
}

// Reject 质检拒收。批次冻结:重量保留供追溯,可用量为零。
func (s *ReceiptService) Reject(batchID string) (*entity.CommodityBatch, error) {
	return s.setQuality(batchID, entity.BatchStatusRejected)
}

func (s *ReceiptService) setQuality(batchID, target string) (*entity.CommodityBatch, error) {
	batch, err := s.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != entity.BatchStatusReceived {
		return nil, &entity.InvalidBatchStateError{BatchID: batch.ID, Status: batch.Status}
	}
	batch.Status = target
	if err := s.batchRepo.UpdateWithVersion(batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *ReceiptService) GetByID(batchID string) (*entity.CommodityBatch, error) {
	return s.batchRepo.GetByID(batchID)
}

func (s *ReceiptService) List(params repository.BatchListParams) ([]entity.CommodityBatch, int64, error) {
	return s.batchRepo.List(params)
}

// Lineage 查询血缘子批次
func (s *ReceiptService) Lineage(batchID string) ([]entity.CommodityBatch, error) {
	if _, err := s.batchRepo.GetByID(batchID); err != nil {
		return nil, err
	}
	return s.batchRepo.ListByParent(batchID)
}

// lookupIdempotent 依次查 redis 快路径与 batch_no 唯一索引
func (s *ReceiptService) lookupIdempotent(ctx context.Context, token, batchNo string) *entity.CommodityBatch {
	if s.rdb != nil {
		if id, err := s.rdb.Get(ctx, idemKey(token)).Result(); err == nil && id != "" {
			if batch, err := s.batchRepo.GetByID(id); err == nil {
				return batch
			}
		}
	}
	batch, err := s.batchRepo.GetByBatchNo(batchNo)
	var notFound *entity.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil
	}
	if err == nil {
		return batch
	}
	return nil
}

func idemKey(token string) string {
	return "commodity:receipt:idem:" + token
}

// deriveBatchNo 批次号:带令牌时由令牌哈希确定性导出。
// 同一令牌重试得到同一批次号,不同令牌不会归并到同一批次号。
func deriveBatchNo(token string) string {
	if token == "" {
		return NewBatchNo("GR")
	}
	sum := sha256.Sum256([]byte(token))
	return "GR-" + strings.ToUpper(hex.EncodeToString(sum[:12]))
}
