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

// ContractService 合同台账:合同/明细的唯一属主,
// 交付累计与"不得超量交付"的单一执行点。
type ContractService struct {
	contractRepo *repository.ContractRepository
	supplierRepo *repository.SupplierRepository
}

func NewContractService(cr *repository.ContractRepository, sr *repository.SupplierRepository) *ContractService {
	return &ContractService{contractRepo: cr, supplierRepo: sr}
}

type CreateContractItem struct {
	CommodityType string          `json:"commodity_type" binding:"required"`
	Grade         string          `json:"grade"`
	ContractedQty decimal.Decimal `json:"contracted_qty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type CreateContractRequest struct {
	SupplierID    string               `json:"supplier_id" binding:"required"`
	Currency      string               `json:"currency"`
	ContractDate  string               `json:"contract_date"` // YYYY-MM-DD
	DeliveryStart string               `json:"delivery_start"`
	DeliveryEnd   string               `json:"delivery_end"`
	Notes         string               `json:"notes"`
	Items         []CreateContractItem `json:"items"`
}

func (s *ContractService) Create(req CreateContractRequest, userID string) (*entity.PurchaseContract, error) {
	if len(req.Items) == 0 {
		return nil, &entity.ValidationError{Field: "items", Msg: "不能为空"}
	}
	for i, item := range req.Items {
		if !item.ContractedQty.IsPositive() {
			return nil, &entity.ValidationError{Field: fmt.Sprintf("items[%d].contracted_qty", i), Msg: "必须大于0"}
		}
		if item.UnitPrice.IsNegative() {
			return nil, &entity.ValidationError{Field: fmt.Sprintf("items[%d].unit_price", i), Msg: "不能为负"}
		}
	}
	if _, err := s.supplierRepo.GetByID(req.SupplierID); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	code := fmt.Sprintf("CT-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000)

	contract := &entity.PurchaseContract{
		ID:         uuid.New().String(),
		ContractNo: code,
		SupplierID: req.SupplierID,
		Status:     entity.ContractStatusDraft,
		Currency:   currency,
		Notes:      req.Notes,
		CreatedBy:  userID,
		Version:    1,
	}
	if t, err := time.Parse("2006-01-02", req.ContractDate); err == nil {
		contract.ContractDate = &t
	}
	if t, err := time.Parse("2006-01-02", req.DeliveryStart); err == nil {
		contract.DeliveryStart = &t
	}
	if t, err := time.Parse("2006-01-02", req.DeliveryEnd); err == nil {
		contract.DeliveryEnd = &t
	}

	var items []entity.PurchaseContractItem
	for _, item := range req.Items {
		items = append(items, entity.PurchaseContractItem{
			ID:            uuid.New().String(),
			ContractID:    contract.ID,
			CommodityType: item.CommodityType,
			Grade:         item.Grade,
			ContractedQty: item.ContractedQty,
			UnitPrice:     item.UnitPrice,
			DeliveredQty:  decimal.Zero,
			Status:        entity.ItemStatusOpen,
			Version:       1,
		})
	}
	contract.Items = items

	if err := s.contractRepo.Create(contract); err != nil {
		return nil, fmt.Errorf("创建合同失败: %w", err)
	}
	return contract, nil
}

func (s *ContractService) GetByID(id string) (*entity.PurchaseContract, error) {
	return s.contractRepo.GetByID(id)
}

func (s *ContractService) List(params repository.ContractListParams) ([]entity.PurchaseContract, int64, error) {
	return s.contractRepo.List(params)
}

// TransitionStatus 合同状态流转。仅允许
// DRAFT→SUBMITTED→ACTIVE→COMPLETED 及 {DRAFT,SUBMITTED}→CANCELLED,
// 状态之外无任何副作用,不级联批次。
func (s *ContractService) TransitionStatus(id, target string) (*entity.PurchaseContract, error) {
	contract, err := s.contractRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransitionContract(contract.Status, target) {
		return nil, &entity.InvalidStateTransition{Entity: "合同", From: contract.Status, To: target}
	}
	contract.Status = target
	if err := s.contractRepo.UpdateStatusWithVersion(contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// RecordDelivery 累计合同明细的交付数量,由收货流程调用。
// 超出合同量时返回 OverDeliveryError 且不落任何修改;
// 并发收货通过版本号 CAS 串行化,冲突时有界重试。
func (s *ContractService) RecordDelivery(itemID string, qty decimal.Decimal) (*entity.PurchaseContractItem, error) {
	if !qty.IsPositive() {
		return nil, &entity.ValidationError{Field: "quantity", Msg: "必须大于0"}
	}

	for attempt := 0; attempt < debitRetryLimit; attempt++ {
		item, err := s.contractRepo.GetItemByID(itemID)
		if err != nil {
			return nil, err
		}
		delivered := item.DeliveredQty.Add(qty)
		if delivered.GreaterThan(item.ContractedQty) {
			return nil, &entity.OverDeliveryError{
				ItemID:     item.ID,
				Contracted: item.ContractedQty,
				Delivered:  item.DeliveredQty,
				Requested:  qty,
			}
		}
		item.DeliveredQty = delivered
		if delivered.Equal(item.ContractedQty) {
			item.Status = entity.ItemStatusFulfilled
		} else {
			item.Status = entity.ItemStatusPartial
		}

		err = s.contractRepo.UpdateItemWithVersion(item)
		if err == nil {
			return item, nil
		}
		var conflict *entity.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			return nil, fmt.Errorf("记录交付失败: %w", err)
		}
	}
	return nil, &entity.ConcurrencyConflictError{Entity: "contract item", ID: itemID}
}

// ReverseDelivery 交付补偿:收货在合同侧提交后、批次落库失败时回退累计量,
// 不允许留下孤儿交付记录。
func (s *ContractService) ReverseDelivery(itemID string, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return &entity.ValidationError{Field: "quantity", Msg: "必须大于0"}
	}

	for attempt := 0; attempt < debitRetryLimit; attempt++ {
		item, err := s.contractRepo.GetItemByID(itemID)
		if err != nil {
			return err
		}
		// 回退量超出已交付时以0为下限
		delivered := item.DeliveredQty.Sub(qty)
		if delivered.IsNegative() {
			delivered = decimal.Zero
		}
		item.DeliveredQty = delivered
		if delivered.IsZero() {
			item.Status = entity.ItemStatusOpen
		} else if delivered.LessThan(item.ContractedQty) {
			item.Status = entity.ItemStatusPartial
		}

		err = s.contractRepo.UpdateItemWithVersion(item)
		if err == nil {
			return nil
		}
		var conflict *entity.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			return fmt.Errorf("回退交付失败: %w", err)
		}
	}
	return &entity.ConcurrencyConflictError{Entity: "contract item", ID: itemID}
}
