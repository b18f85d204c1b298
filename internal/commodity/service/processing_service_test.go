package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type processingTestEnv struct {
	db          *gorm.DB
	processing  *ProcessingService
	allocation  *AllocationService
	batchRepo   *repository.BatchRepository
	warehouseID string
	supplierID  string
}

func setupProcessingTest(t *testing.T) *processingTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	wh := testutil.SeedWarehouse(t, db, "WH-001", "加工一号仓")
	supplier := testutil.SeedSupplier(t, db, "SUP-001", "云南咖啡供应商")

	repos := repository.NewRepositories(db)
	allocation := NewAllocationService(repos.Batch)
	processing := NewProcessingService(repos.Order, repos.Batch, repos.Warehouse, allocation)

	return &processingTestEnv{
		db:          db,
		processing:  processing,
		allocation:  allocation,
		batchRepo:   repos.Batch,
		warehouseID: wh.ID,
		supplierID:  supplier.ID,
	}
}

func TestProcessingCreatePlannedNoInventoryEffect(t *testing.T) {
	env := setupProcessingTest(t)
	batch := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-001", env.warehouseID, env.supplierID, decimal.NewFromInt(500))

	order, err := env.processing.Create(CreateOrderRequest{
		ProcessType:       "ROASTING",
		OutputWarehouseID: env.warehouseID,
		Inputs:            []CreateOrderInput{{BatchID: batch.ID, Quantity: decimal.NewFromInt(500)}},
	}, "test-user-001")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if order.Status != entity.OrderStatusPlanned {
		t.Errorf("expected PLANNED, got %s", order.Status)
	}

	// 计划阶段不触碰库存
	reloaded, _ := env.batchRepo.GetByID(batch.ID)
	if !reloaded.CurrentWeight.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected untouched weight 500, got %s", reloaded.CurrentWeight)
	}
	if reloaded.Status != entity.BatchStatusApproved {
		t.Errorf("expected APPROVED, got %s", reloaded.Status)
	}
}

func TestProcessingLifecycleWithYieldLoss(t *testing.T) {
	env := setupProcessingTest(t)
	batch := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-002", env.warehouseID, env.supplierID, decimal.NewFromInt(500))

	order, err := env.processing.Create(CreateOrderRequest{
		ProcessType:       "ROASTING",
		OutputWarehouseID: env.warehouseID,
		Inputs:            []CreateOrderInput{{BatchID: batch.ID, Quantity: decimal.NewFromInt(500)}},
	}, "test-user-001")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	started, err := env.processing.Start(order.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if started.Status != entity.OrderStatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", started.Status)
	}
	if started.StartedAt == nil {
		t.Error("expected started_at set")
	}

	// 全量投入扣空 -> CONSUMED
	source, _ := env.batchRepo.GetByID(batch.ID)
	if source.Status != entity.BatchStatusConsumed {
		t.Errorf("expected source CONSUMED, got %s", source.Status)
	}

	// 产出 420,损耗 80
	completed, outputs, err := env.processing.Complete(order.ID, CompleteOrderRequest{
		Outputs: []CompleteOrderOutput{{CommodityType: "ROASTED_COFFEE", Weight: decimal.NewFromInt(420)}},
	}, "test-user-001")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != entity.OrderStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", completed.Status)
	}
	if !completed.LossWeight.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected loss 80, got %s", completed.LossWeight)
	}
	if len(outputs) != 1 {
		t.Fatalf("expected 1 output batch, got %d", len(outputs))
	}

	out := outputs[0]
	if out.Status != entity.BatchStatusReceived {
		t.Errorf("output batch enters quality flow as RECEIVED, got %s", out.Status)
	}
	if out.CommodityType != "ROASTED_COFFEE" {
		t.Errorf("expected transformed commodity type, got %s", out.CommodityType)
	}
	if out.ParentBatchID == nil || *out.ParentBatchID != batch.ID {
		t.Error("expected lineage to input batch")
	}
	if out.SourceOrderID == nil || *out.SourceOrderID != order.ID {
		t.Error("expected source order link")
	}
}

func TestProcessingCompleteOverOutputRejected(t *testing.T) {
	env := setupProcessingTest(t)
	batch := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-003", env.warehouseID, env.supplierID, decimal.NewFromInt(100))

	order, _ := env.processing.Create(CreateOrderRequest{
		ProcessType:       "MILLING",
		OutputWarehouseID: env.warehouseID,
		Inputs:            []CreateOrderInput{{BatchID: batch.ID, Quantity: decimal.NewFromInt(100)}},
	}, "test-user-001")
	if _, err := env.processing.Start(order.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// 产出超过投入:整体拒绝,不产生任何批次
	var ve *entity.ValidationError
	_, _, err := env.processing.Complete(order.ID, CompleteOrderRequest{
		Outputs: []CompleteOrderOutput{{CommodityType: "MILLED", Weight: decimal.NewFromInt(101)}},
	}, "test-user-001")
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for over-output, got %v", err)
	}

	var count int64
	env.db.Model(&entity.CommodityBatch{}).Where("source_order_id = ?", order.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no output batches after rejection, got %d", count)
	}
}

func TestProcessingStartCompensation(t *testing.T) {
	env := setupProcessingTest(t)
	good := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-004", env.warehouseID, env.supplierID, decimal.NewFromInt(200))
	small := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-005", env.warehouseID, env.supplierID, decimal.NewFromInt(50))

	// 第二项投入超出余量,启动必须整体失败
	order, err := env.processing.Create(CreateOrderRequest{
		ProcessType:       "BLENDING",
		OutputWarehouseID: env.warehouseID,
		Inputs: []CreateOrderInput{
			{BatchID: good.ID, Quantity: decimal.NewFromInt(150)},
			{BatchID: small.ID, Quantity: decimal.NewFromInt(80)},
		},
	}, "test-user-001")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var iqe *entity.InsufficientQuantityError
	if _, err := env.processing.Start(order.ID); !errors.As(err, &iqe) {
		t.Fatalf("expected InsufficientQuantityError, got %v", err)
	}

	// 已扣减的第一项被退回
	reloaded, _ := env.batchRepo.GetByID(good.ID)
	if !reloaded.CurrentWeight.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected first input restored to 200, got %s", reloaded.CurrentWeight)
	}
	if reloaded.Status != entity.BatchStatusApproved {
		t.Errorf("expected APPROVED after compensation, got %s", reloaded.Status)
	}

	stillPlanned, _ := env.processing.GetByID(order.ID)
	if stillPlanned.Status != entity.OrderStatusPlanned {
		t.Errorf("expected order still PLANNED, got %s", stillPlanned.Status)
	}
}

// TestProcessingStartConcurrent 同一加工单并发启动:
// 只有抢占成功的一方扣减库存,投入批次恰被扣减一次。
func TestProcessingStartConcurrent(t *testing.T) {
	env := setupProcessingTest(t)
	batch := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-007", env.warehouseID, env.supplierID, decimal.NewFromInt(500))

	order, err := env.processing.Create(CreateOrderRequest{
		ProcessType:       "ROASTING",
		OutputWarehouseID: env.warehouseID,
		Inputs:            []CreateOrderInput{{BatchID: batch.ID, Quantity: decimal.NewFromInt(100)}},
	}, "test-user-001")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = env.processing.Start(order.ID)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *entity.ConcurrencyConflictError
		var ist *entity.InvalidStateTransition
		if !errors.As(err, &conflict) && !errors.As(err, &ist) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one successful start, got %d", succeeded)
	}

	// 落败方没有扣减任何库存
	reloaded, _ := env.batchRepo.GetByID(batch.ID)
	if !reloaded.CurrentWeight.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("input batch must be debited exactly once, got %s", reloaded.CurrentWeight)
	}

	final, _ := env.processing.GetByID(order.ID)
	if final.Status != entity.OrderStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", final.Status)
	}
	if !final.Inputs[0].DebitedQty.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected debited qty 100, got %s", final.Inputs[0].DebitedQty)
	}
}

// TestProcessingCompletePartialFailure 第二个产出指向不存在的仓库:
// 完工整体拒绝,不留任何产出批次,修正后重试成功。
func TestProcessingCompletePartialFailure(t *testing.T) {
	env := setupProcessingTest(t)
	batch := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-008", env.warehouseID, env.supplierID, decimal.NewFromInt(500))

	order, _ := env.processing.Create(CreateOrderRequest{
		ProcessType:       "MILLING",
		OutputWarehouseID: env.warehouseID,
		Inputs:            []CreateOrderInput{{BatchID: batch.ID, Quantity: decimal.NewFromInt(500)}},
	}, "test-user-001")
	if _, err := env.processing.Start(order.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var nf *entity.NotFoundError
	_, _, err := env.processing.Complete(order.ID, CompleteOrderRequest{
		Outputs: []CompleteOrderOutput{
			{CommodityType: "MILLED_A", Weight: decimal.NewFromInt(200)},
			{CommodityType: "MILLED_B", Weight: decimal.NewFromInt(100), WarehouseID: "00000000-0000-0000-0000-000000000000"},
		},
	}, "test-user-001")
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	// 无半截写入:没有任何产出批次,加工单仍 IN_PROGRESS
	var count int64
	env.db.Model(&entity.CommodityBatch{}).Where("source_order_id = ?", order.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no output batches after rejected complete, got %d", count)
	}
	still, _ := env.processing.GetByID(order.ID)
	if still.Status != entity.OrderStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", still.Status)
	}

	// 修正后重试:产出恰好一次,守恒不破
	completed, outputs, err := env.processing.Complete(order.ID, CompleteOrderRequest{
		Outputs: []CompleteOrderOutput{
			{CommodityType: "MILLED_A", Weight: decimal.NewFromInt(200)},
			{CommodityType: "MILLED_B", Weight: decimal.NewFromInt(100)},
		},
	}, "test-user-001")
	if err != nil {
		t.Fatalf("retry Complete failed: %v", err)
	}
	if !completed.LossWeight.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected loss 200, got %s", completed.LossWeight)
	}
	if len(outputs) != 2 {
		t.Fatalf("expected 2 output batches, got %d", len(outputs))
	}
	env.db.Model(&entity.CommodityBatch{}).Where("source_order_id = ?", order.ID).Count(&count)
	if count != 2 {
		t.Fatalf("expected exactly 2 output batches, got %d", count)
	}
}

func TestProcessingCancelRestoresInputs(t *testing.T) {
	env := setupProcessingTest(t)
	batch := testutil.SeedApprovedBatch(t, env.db, "GR-PROC-006", env.warehouseID, env.supplierID, decimal.NewFromInt(300))

	order, _ := env.processing.Create(CreateOrderRequest{
		ProcessType:       "SORTING",
		OutputWarehouseID: env.warehouseID,
		Inputs:            []CreateOrderInput{{BatchID: batch.ID, Quantity: decimal.NewFromInt(120)}},
	}, "test-user-001")
	if _, err := env.processing.Start(order.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	cancelled, err := env.processing.Cancel(order.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != entity.OrderStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	reloaded, _ := env.batchRepo.GetByID(batch.ID)
	if !reloaded.CurrentWeight.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected weight restored to 300, got %s", reloaded.CurrentWeight)
	}
	if reloaded.Status != entity.BatchStatusApproved {
		t.Errorf("expected APPROVED after cancel, got %s", reloaded.Status)
	}

	// 取消后不可完工
	var ist *entity.InvalidStateTransition
	if _, _, err := env.processing.Complete(order.ID, CompleteOrderRequest{
		Outputs: []CompleteOrderOutput{{CommodityType: "SORTED", Weight: decimal.NewFromInt(10)}},
	}, "test-user-001"); !errors.As(err, &ist) {
		t.Fatalf("expected InvalidStateTransition after cancel, got %v", err)
	}
}
