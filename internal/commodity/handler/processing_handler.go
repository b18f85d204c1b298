package handler

import (
	"net/http"
	"strconv"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/service"
	"github.com/gin-gonic/gin"
)

type ProcessingHandler struct {
	svc *service.ProcessingService
}

func NewProcessingHandler(svc *service.ProcessingService) *ProcessingHandler {
	return &ProcessingHandler{svc: svc}
}

func (h *ProcessingHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	order, err := h.svc.Create(req, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

func (h *ProcessingHandler) Get(c *gin.Context) {
	order, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

func (h *ProcessingHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.OrderListParams{
		Status:      c.Query("status"),
		ProcessType: c.Query("process_type"),
		Keyword:     c.Query("keyword"),
		Page:        page,
		Size:        size,
	}
	orders, total, err := h.svc.List(params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": orders, "total": total, "page": page, "size": size}})
}

func (h *ProcessingHandler) Start(c *gin.Context) {
	order, err := h.svc.Start(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}

func (h *ProcessingHandler) Complete(c *gin.Context) {
	var req service.CompleteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	order, batches, err := h.svc.Complete(c.Param("id"), req, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"order": order, "batches": batches}})
}

func (h *ProcessingHandler) Cancel(c *gin.Context) {
	order, err := h.svc.Cancel(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": order})
}
