package handler

import (
	"net/http"
	"strconv"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/service"
	"github.com/gin-gonic/gin"
)

type BatchHandler struct {
	receiptSvc  *service.ReceiptService
	transferSvc *service.TransferService
}

func NewBatchHandler(receiptSvc *service.ReceiptService, transferSvc *service.TransferService) *BatchHandler {
	return &BatchHandler{receiptSvc: receiptSvc, transferSvc: transferSvc}
}

// Receive POST /batches/receive
func (h *BatchHandler) Receive(c *gin.Context) {
	var req service.ReceiveGoodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	batch, err := h.receiptSvc.ReceiveGoods(c.Request.Context(), req, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": batch})
}

func (h *BatchHandler) Approve(c *gin.Context) {
	batch, err := h.receiptSvc.Approve(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": batch})
}

func (h *BatchHandler) Reject(c *gin.Context) {
	batch, err := h.receiptSvc.Reject(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": batch})
}

func (h *BatchHandler) Get(c *gin.Context) {
	batch, err := h.receiptSvc.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": batch})
}

func (h *BatchHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.BatchListParams{
		CommodityType: c.Query("commodity_type"),
		WarehouseID:   c.Query("warehouse_id"),
		SupplierID:    c.Query("supplier_id"),
		Status:        c.Query("status"),
		Keyword:       c.Query("keyword"),
		Page:          page,
		Size:          size,
	}
	batches, total, err := h.receiptSvc.List(params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": batches, "total": total, "page": page, "size": size}})
}

// Lineage GET /batches/:id/lineage
func (h *BatchHandler) Lineage(c *gin.Context) {
	children, err := h.receiptSvc.Lineage(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": children})
}

// Transfer POST /batches/:id/transfer
func (h *BatchHandler) Transfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	move, dest, err := h.transferSvc.Transfer(c.Param("id"), req, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"movement": move, "batch": dest}})
}

// Movements GET /batches/:id/movements
func (h *BatchHandler) Movements(c *gin.Context) {
	moves, err := h.transferSvc.Movements(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": moves})
}
