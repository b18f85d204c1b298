package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type receiptTestEnv struct {
	db          *gorm.DB
	receipt     *ReceiptService
	contract    *ContractService
	warehouseID string
	supplierID  string
}

func setupReceiptTest(t *testing.T) *receiptTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	wh := testutil.SeedWarehouse(t, db, "WH-001", "保税一号仓")
	supplier := testutil.SeedSupplier(t, db, "SUP-001", "云南咖啡供应商")

	repos := repository.NewRepositories(db)
	contract := NewContractService(repos.Contract, repos.Supplier)
	// redis 未配置,幂等仅走数据库路径
	receipt := NewReceiptService(repos.Batch, repos.Warehouse, repos.Supplier, contract, nil)

	return &receiptTestEnv{db: db, receipt: receipt, contract: contract, warehouseID: wh.ID, supplierID: supplier.ID}
}

func TestReceiveGoodsCreatesBatch(t *testing.T) {
	env := setupReceiptTest(t)

	batch, err := env.receipt.ReceiveGoods(context.Background(), ReceiveGoodsRequest{
		CommodityType: "COFFEE",
		Grade:         "AA",
		SupplierID:    env.supplierID,
		WarehouseID:   env.warehouseID,
		Weight:        decimal.NewFromInt(500),
		UnitCost:      decimal.NewFromFloat(3.2),
	}, "test-user-001")
	if err != nil {
		t.Fatalf("ReceiveGoods failed: %v", err)
	}
	if batch.Status != entity.BatchStatusReceived {
		t.Errorf("expected RECEIVED, got %s", batch.Status)
	}
	if !batch.CurrentWeight.Equal(batch.ReceivedWeight) {
		t.Errorf("expected current == received, got %s vs %s", batch.CurrentWeight, batch.ReceivedWeight)
	}
	if batch.Currency != "USD" {
		t.Errorf("expected default currency USD, got %s", batch.Currency)
	}
}

func TestReceiveGoodsValidation(t *testing.T) {
	env := setupReceiptTest(t)
	ctx := context.Background()

	var ve *entity.ValidationError
	_, err := env.receipt.ReceiveGoods(ctx, ReceiveGoodsRequest{
		CommodityType: "COFFEE",
		SupplierID:    env.supplierID,
		WarehouseID:   env.warehouseID,
		Weight:        decimal.Zero,
	}, "test-user-001")
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for zero weight, got %v", err)
	}

	var nf *entity.NotFoundError
	_, err = env.receipt.ReceiveGoods(ctx, ReceiveGoodsRequest{
		CommodityType: "COFFEE",
		SupplierID:    env.supplierID,
		WarehouseID:   "00000000-0000-0000-0000-000000000000",
		Weight:        decimal.NewFromInt(10),
	}, "test-user-001")
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for unknown warehouse, got %v", err)
	}
}

func TestReceiveGoodsIdempotent(t *testing.T) {
	env := setupReceiptTest(t)
	ctx := context.Background()

	req := ReceiveGoodsRequest{
		CommodityType:  "COFFEE",
		SupplierID:     env.supplierID,
		WarehouseID:    env.warehouseID,
		Weight:         decimal.NewFromInt(500),
		IdempotencyKey: "po-123/receipt-1",
	}

	first, err := env.receipt.ReceiveGoods(ctx, req, "test-user-001")
	if err != nil {
		t.Fatalf("first ReceiveGoods failed: %v", err)
	}

	// 同一令牌重试:返回同一批次,不产生新批次
	second, err := env.receipt.ReceiveGoods(ctx, req, "test-user-001")
	if err != nil {
		t.Fatalf("retry ReceiveGoods failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same batch on retry, got %s vs %s", first.ID, second.ID)
	}

	var count int64
	env.db.Model(&entity.CommodityBatch{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 batch, got %d", count)
	}
}

func TestReceiveGoodsContractDelivery(t *testing.T) {
	env := setupReceiptTest(t)
	ctx := context.Background()

	contract, err := env.contract.Create(CreateContractRequest{
		SupplierID: env.supplierID,
		Items:      []CreateContractItem{{CommodityType: "COFFEE", ContractedQty: decimal.NewFromInt(1000)}},
	}, "test-user-001")
	if err != nil {
		t.Fatalf("contract Create failed: %v", err)
	}
	itemID := contract.Items[0].ID

	batch, err := env.receipt.ReceiveGoods(ctx, ReceiveGoodsRequest{
		CommodityType:  "COFFEE",
		SupplierID:     env.supplierID,
		WarehouseID:    env.warehouseID,
		Weight:         decimal.NewFromInt(400),
		ContractItemID: itemID,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("ReceiveGoods failed: %v", err)
	}
	if batch.ContractItemID == nil || *batch.ContractItemID != itemID {
		t.Error("expected batch linked to contract item")
	}

	item, _ := env.contract.contractRepo.GetItemByID(itemID)
	if !item.DeliveredQty.Equal(decimal.NewFromInt(400)) {
		t.Errorf("expected delivered 400, got %s", item.DeliveredQty)
	}
	if item.Status != entity.ItemStatusPartial {
		t.Errorf("expected PARTIAL, got %s", item.Status)
	}

	// 超量收货:合同侧拒绝,批次不产生
	var ode *entity.OverDeliveryError
	_, err = env.receipt.ReceiveGoods(ctx, ReceiveGoodsRequest{
		CommodityType:  "COFFEE",
		SupplierID:     env.supplierID,
		WarehouseID:    env.warehouseID,
		Weight:         decimal.NewFromInt(700),
		ContractItemID: itemID,
	}, "test-user-001")
	if !errors.As(err, &ode) {
		t.Fatalf("expected OverDeliveryError, got %v", err)
	}

	var count int64
	env.db.Model(&entity.CommodityBatch{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 batch after rejected over-delivery, got %d", count)
	}
	item, _ = env.contract.contractRepo.GetItemByID(itemID)
	if !item.DeliveredQty.Equal(decimal.NewFromInt(400)) {
		t.Errorf("delivered qty changed after rejected receive: %s", item.DeliveredQty)
	}
}

func TestApproveRejectQuality(t *testing.T) {
	env := setupReceiptTest(t)
	ctx := context.Background()

	batch, _ := env.receipt.ReceiveGoods(ctx, ReceiveGoodsRequest{
		CommodityType: "COFFEE",
		SupplierID:    env.supplierID,
		WarehouseID:   env.warehouseID,
		Weight:        decimal.NewFromInt(100),
	}, "test-user-001")

	approved, err := env.receipt.Approve(batch.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != entity.BatchStatusApproved {
		t.Errorf("expected APPROVED, got %s", approved.Status)
	}

	// 质检只允许一次
	var ibs *entity.InvalidBatchStateError
	if _, err := env.receipt.Reject(batch.ID); !errors.As(err, &ibs) {
		t.Fatalf("expected InvalidBatchStateError on second quality decision, got %v", err)
	}

	// 拒收批次保留重量但不可动用
	batch2, _ := env.receipt.ReceiveGoods(ctx, ReceiveGoodsRequest{
		CommodityType: "COFFEE",
		SupplierID:    env.supplierID,
		WarehouseID:   env.warehouseID,
		Weight:        decimal.NewFromInt(50),
	}, "test-user-001")
	rejected, err := env.receipt.Reject(batch2.ID)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != entity.BatchStatusRejected {
		t.Errorf("expected REJECTED, got %s", rejected.Status)
	}
	if !rejected.CurrentWeight.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected weight kept for traceability, got %s", rejected.CurrentWeight)
	}
	if rejected.Debitable() {
		t.Error("rejected batch must not be debitable")
	}
}

func TestDeriveBatchNoDeterministic(t *testing.T) {
	a := deriveBatchNo("po-123/receipt-1")
	if b := deriveBatchNo("po-123/receipt-1"); a != b {
		t.Fatalf("expected deterministic batch no, got %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "GR-") {
		t.Fatalf("unexpected derived batch no: %s", a)
	}

	// 字符近似但不同的令牌不得归并到同一批次号
	for _, token := range []string{"po_123.receipt_1", "po/123 receipt#1", "po-123/receipt-2"} {
		if b := deriveBatchNo(token); b == a {
			t.Fatalf("distinct token %q aliases to same batch no %s", token, a)
		}
	}
}
