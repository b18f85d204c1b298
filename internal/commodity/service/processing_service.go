package service

import (
	"fmt"
	"time"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProcessingService 加工单状态机:PLANNED → IN_PROGRESS → COMPLETED,
// PLANNED/IN_PROGRESS → CANCELLED。所有库存变更经由分配引擎。
type ProcessingService struct {
	orderRepo     *repository.OrderRepository
	batchRepo     *repository.BatchRepository
	warehouseRepo *repository.WarehouseRepository
	allocation    *AllocationService
}

func NewProcessingService(or *repository.OrderRepository, br *repository.BatchRepository, wr *repository.WarehouseRepository, alloc *AllocationService) *ProcessingService {
	return &ProcessingService{orderRepo: or, batchRepo: br, warehouseRepo: wr, allocation: alloc}
}

type CreateOrderInput struct {
	BatchID  string          `json:"batch_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

type CreateOrderRequest struct {
	ProcessType       string             `json:"process_type" binding:"required"`
	OutputWarehouseID string             `json:"output_warehouse_id"`
	Notes             string             `json:"notes"`
	Inputs            []CreateOrderInput `json:"inputs"`
}

// Create 创建加工单(PLANNED)。投入数量此时只是计划,不触碰库存。
func (s *ProcessingService) Create(req CreateOrderRequest, userID string) (*entity.ProcessingOrder, error) {
	if len(req.Inputs) == 0 {
		return nil, &entity.ValidationError{Field: "inputs", Msg: "不能为空"}
	}
	for i, in := range req.Inputs {
		if !in.Quantity.IsPositive() {
			return nil, &entity.ValidationError{Field: fmt.Sprintf("inputs[%d].quantity", i), Msg: "必须大于0"}
		}
	}
	if req.OutputWarehouseID != "" {
		if _, err := s.warehouseRepo.GetByID(req.OutputWarehouseID); err != nil {
			return nil, err
		}
	}

	code := fmt.Sprintf("PO-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000)
	order := &entity.ProcessingOrder{
		ID:                uuid.New().String(),
		OrderNo:           code,
		ProcessType:       req.ProcessType,
		Status:            entity.OrderStatusPlanned,
		OutputWarehouseID: req.OutputWarehouseID,
		LossWeight:        decimal.Zero,
		Notes:             req.Notes,
		CreatedBy:         userID,
		Version:           1,
	}

	var inputs []entity.ProcessingInput
	for _, in := range req.Inputs {
		batch, err := s.batchRepo.GetByID(in.BatchID)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, entity.ProcessingInput{
			ID:         uuid.New().String(),
			OrderID:    order.ID,
			BatchID:    batch.ID,
			BatchNo:    batch.BatchNo,
			Quantity:   in.Quantity,
			DebitedQty: decimal.Zero,
		})
	}
	order.Inputs = inputs

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("创建加工单失败: %w", err)
	}
	return order, nil
}

func (s *ProcessingService) GetByID(id string) (*entity.ProcessingOrder, error) {
	return s.orderRepo.GetByID(id)
}

func (s *ProcessingService) List(params repository.OrderListParams) ([]entity.ProcessingOrder, int64, error) {
	return s.orderRepo.List(params)
}

// Start 启动加工:先以版本号抢占 PLANNED→IN_PROGRESS,再逐项扣减投入批次。
// 并发启动只有抢占成功的一方进入扣减;抢占之后任一扣减或落账失败时,
// 已扣减的数量全部退回,加工单还原为 PLANNED。
func (s *ProcessingService) Start(id string) (*entity.ProcessingOrder, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransitionOrder(order.Status, entity.OrderStatusInProgress) {
		return nil, &entity.InvalidStateTransition{Entity: "加工单", From: order.Status, To: entity.OrderStatusInProgress}
	}

	// 抢占:版本冲突的一方在任何扣减之前出局
	now := time.Now()
	order.Status = entity.OrderStatusInProgress
	order.StartedAt = &now
	if err := s.orderRepo.UpdateWithVersion(order); err != nil {
		return nil, err
	}

	var debited []entity.ProcessingInput
	fail := func(cause error) (*entity.ProcessingOrder, error) {
		for _, d := range debited {
			if cbErr := s.allocation.CreditBack(d.BatchID, d.Quantity); cbErr != nil {
				return nil, fmt.Errorf("启动失败且补偿退回失败: %v: %w", cbErr, cause)
			}
		}
		for i := range order.Inputs {
			in := &order.Inputs[i]
			if in.DebitedQty.IsPositive() {
				in.DebitedQty = decimal.Zero
				if upErr := s.orderRepo.UpdateInput(in); upErr != nil {
					return nil, fmt.Errorf("启动失败且投入记录还原失败: %v: %w", upErr, cause)
				}
			}
		}
		order.Status = entity.OrderStatusPlanned
		order.StartedAt = nil
		if revErr := s.orderRepo.UpdateWithVersion(order); revErr != nil {
			return nil, fmt.Errorf("启动失败且还原加工单失败: %v: %w", revErr, cause)
		}
		return nil, cause
	}

	for i := range order.Inputs {
		in := &order.Inputs[i]
		if _, err := s.allocation.ReserveAndDebit(in.BatchID, in.Quantity, DebitPurposeProcessing); err != nil {
			return fail(err)
		}
		debited = append(debited, *in)
		in.DebitedQty = in.Quantity
		if err := s.orderRepo.UpdateInput(in); err != nil {
			return fail(fmt.Errorf("更新投入记录失败: %w", err))
		}
	}
	return order, nil
}

type CompleteOrderOutput struct {
	CommodityType string          `json:"commodity_type" binding:"required"`
	Weight        decimal.Decimal `json:"weight"`
	WarehouseID   string          `json:"warehouse_id"`
}

type CompleteOrderRequest struct {
	Outputs []CompleteOrderOutput `json:"outputs"`
}

// Complete 完工:按产出入账新批次。产出总量不得超过投入总量,
// 差额记为工艺损耗(显式守恒,不允许隐式蒸发)。
func (s *ProcessingService) Complete(id string, req CompleteOrderRequest, userID string) (*entity.ProcessingOrder, []entity.CommodityBatch, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	if !entity.CanTransitionOrder(order.Status, entity.OrderStatusCompleted) {
		return nil, nil, &entity.InvalidStateTransition{Entity: "加工单", From: order.Status, To: entity.OrderStatusCompleted}
	}
	if len(req.Outputs) == 0 {
		return nil, nil, &entity.ValidationError{Field: "outputs", Msg: "不能为空"}
	}

	totalOut := decimal.Zero
	for i, out := range req.Outputs {
		if !out.Weight.IsPositive() {
			return nil, nil, &entity.ValidationError{Field: fmt.Sprintf("outputs[%d].weight", i), Msg: "必须大于0"}
		}
		totalOut = totalOut.Add(out.Weight)
	}
	totalIn := order.TotalDebited()
	if totalOut.GreaterThan(totalIn) {
		return nil, nil, &entity.ValidationError{
			Field: "outputs",
			Msg:   fmt.Sprintf("产出总量%s超出投入总量%s", totalOut, totalIn),
		}
	}

	// 产出仓库全部先行校验,入账开始之后不再出现业务失败
	warehouses := make([]string, len(req.Outputs))
	for i, out := range req.Outputs {
		warehouseID := out.WarehouseID
		if warehouseID == "" {
			warehouseID = order.OutputWarehouseID
		}
		if warehouseID == "" {
			return nil, nil, &entity.ValidationError{Field: "warehouse_id", Msg: "未指定产出仓库"}
		}
		if _, err := s.warehouseRepo.GetByID(warehouseID); err != nil {
			return nil, nil, err
		}
		warehouses[i] = warehouseID
	}

	// 血缘指向主投入批次
	source, err := s.batchRepo.GetByID(order.Inputs[0].BatchID)
	if err != nil {
		return nil, nil, err
	}

	// 抢占完工:版本冲突的一方在任何入账之前出局
	now := time.Now()
	order.Status = entity.OrderStatusCompleted
	order.CompletedAt = &now
	order.LossWeight = totalIn.Sub(totalOut)
	if err := s.orderRepo.UpdateWithVersion(order); err != nil {
		return nil, nil, err
	}

	var created []entity.CommodityBatch
	var records []*entity.ProcessingOutput
	fail := func(cause error) (*entity.ProcessingOrder, []entity.CommodityBatch, error) {
		for _, rec := range records {
			if delErr := s.orderRepo.DeleteOutput(rec.ID); delErr != nil {
				return nil, nil, fmt.Errorf("完工失败且产出记录清理失败: %v: %w", delErr, cause)
			}
		}
		for i := range created {
			if delErr := s.batchRepo.Delete(created[i].ID); delErr != nil {
				return nil, nil, fmt.Errorf("完工失败且产出批次清理失败: %v: %w", delErr, cause)
			}
		}
		order.Status = entity.OrderStatusInProgress
		order.CompletedAt = nil
		order.LossWeight = decimal.Zero
		order.Outputs = nil
		if revErr := s.orderRepo.UpdateWithVersion(order); revErr != nil {
			return nil, nil, fmt.Errorf("完工失败且还原加工单失败: %v: %w", revErr, cause)
		}
		return nil, nil, cause
	}

	for i, out := range req.Outputs {
		orderID := order.ID
		batch, err := s.allocation.CreditNewBatch(CreditParams{
			Source:        source,
			Quantity:      out.Weight,
			WarehouseID:   warehouses[i],
			Status:        entity.BatchStatusReceived,
			BatchNo:       NewBatchNo("PX"),
			CommodityType: out.CommodityType,
			SourceOrderID: &orderID,
			CreatedBy:     userID,
		})
		if err != nil {
			return fail(err)
		}
		created = append(created, *batch)
		record := &entity.ProcessingOutput{
			ID:            uuid.New().String(),
			OrderID:       order.ID,
			BatchID:       batch.ID,
			BatchNo:       batch.BatchNo,
			CommodityType: batch.CommodityType,
			Weight:        out.Weight,
			WarehouseID:   warehouses[i],
		}
		if err := s.orderRepo.CreateOutput(record); err != nil {
			return fail(fmt.Errorf("记录产出失败: %w", err))
		}
		records = append(records, record)
		order.Outputs = append(order.Outputs, *record)
	}
	return order, created, nil
}

// Cancel 取消加工单。IN_PROGRESS 下已扣减的投入全额退回来源批次,
// 取消永不销毁库存。
func (s *ProcessingService) Cancel(id string) (*entity.ProcessingOrder, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransitionOrder(order.Status, entity.OrderStatusCancelled) {
		return nil, &entity.InvalidStateTransition{Entity: "加工单", From: order.Status, To: entity.OrderStatusCancelled}
	}

	for i := range order.Inputs {
		in := &order.Inputs[i]
		if !in.DebitedQty.IsPositive() {
			continue
		}
		if err := s.allocation.CreditBack(in.BatchID, in.DebitedQty); err != nil {
			return nil, fmt.Errorf("退回投入批次失败: %w", err)
		}
		in.DebitedQty = decimal.Zero
		if err := s.orderRepo.UpdateInput(in); err != nil {
			return nil, fmt.Errorf("更新投入记录失败: %w", err)
		}
	}

	now := time.Now()
	order.Status = entity.OrderStatusCancelled
	order.CancelledAt = &now
	if err := s.orderRepo.UpdateWithVersion(order); err != nil {
		return nil, err
	}
	return order, nil
}
