package handler

import (
	"net/http"
	"testing"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/service"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/testutil"
	"github.com/shopspring/decimal"
)

func setupBatchTest(t *testing.T) (*testutil.TestEnv, string, string, string) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	src := testutil.SeedWarehouse(t, db, "WH-001", "保税一号仓")
	dest := testutil.SeedWarehouse(t, db, "WH-002", "保税二号仓")
	supplier := testutil.SeedSupplier(t, db, "SUP-001", "云南咖啡供应商")

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil)
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1/commodity")
	api.POST("/batches/receive", handlers.Batch.Receive)
	api.GET("/batches/:id", handlers.Batch.Get)
	api.POST("/batches/:id/approve", handlers.Batch.Approve)
	api.POST("/batches/:id/reject", handlers.Batch.Reject)
	api.POST("/batches/:id/transfer", handlers.Batch.Transfer)
	api.GET("/batches/:id/movements", handlers.Batch.Movements)

	env := &testutil.TestEnv{DB: db, Router: router, T: t}
	return env, src.ID, dest.ID, supplier.ID
}

// TestBatchReceiveApproveTransfer walks a batch through the receive,
// quality approval and warehouse transfer flow over HTTP.
func TestBatchReceiveApproveTransfer(t *testing.T) {
	env, srcWH, destWH, supplierID := setupBatchTest(t)
	token := testutil.DefaultTestToken()

	// 收货
	body := map[string]interface{}{
		"commodity_type": "COFFEE",
		"grade":          "AA",
		"supplier_id":    supplierID,
		"warehouse_id":   srcWH,
		"weight":         "500",
		"unit_cost":      "3.2",
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/commodity/batches/receive", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	batchID := data["id"].(string)
	if data["status"].(string) != entity.BatchStatusReceived {
		t.Fatalf("expected RECEIVED, got %v", data["status"])
	}

	// 质检前不可调拨
	transferBody := map[string]interface{}{
		"dest_warehouse_id": destWH,
		"quantity":          "200",
	}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/commodity/batches/"+batchID+"/transfer", transferBody, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 before approval, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	if resp["code"].(float64) != 10003 {
		t.Fatalf("expected code 10003, got %v", resp["code"])
	}

	// 质检通过
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/commodity/batches/"+batchID+"/approve", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("approve expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 调拨 200 到二号仓
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/commodity/batches/"+batchID+"/transfer", transferBody, token)
	if w.Code != http.StatusOK {
		t.Fatalf("transfer expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 来源批次余量 300
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/commodity/batches/"+batchID, nil, token)
	resp = testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	if data["current_weight"].(string) != "300" {
		t.Fatalf("expected remaining 300, got %v", data["current_weight"])
	}

	// 调拨流水可见
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/commodity/batches/"+batchID+"/movements", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("movements expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	moves := resp["data"].([]interface{})
	if len(moves) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(moves))
	}
}

func TestBatchReceiveUnauthorized(t *testing.T) {
	env, srcWH, _, supplierID := setupBatchTest(t)

	body := map[string]interface{}{
		"commodity_type": "COFFEE",
		"supplier_id":    supplierID,
		"warehouse_id":   srcWH,
		"weight":         "100",
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/commodity/batches/receive", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestBatchOverTransferConflict(t *testing.T) {
	env, srcWH, destWH, supplierID := setupBatchTest(t)
	token := testutil.DefaultTestToken()

	batch := testutil.SeedApprovedBatch(t, env.DB, "GR-H-001", srcWH, supplierID, decimal.NewFromInt(100))

	body := map[string]interface{}{
		"dest_warehouse_id": destWH,
		"quantity":          "101",
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/commodity/batches/"+batch.ID+"/transfer", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 10004 {
		t.Fatalf("expected code 10004, got %v", resp["code"])
	}
}
