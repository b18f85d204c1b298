package handler

import (
	"net/http"
	"strconv"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/service"
	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	svc *service.ContractService
}

func NewContractHandler(svc *service.ContractService) *ContractHandler {
	return &ContractHandler{svc: svc}
}

func (h *ContractHandler) Create(c *gin.Context) {
	var req service.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	contract, err := h.svc.Create(req, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": contract})
}

func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": contract})
}

func (h *ContractHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	params := repository.ContractListParams{
		SupplierID: c.Query("supplier_id"),
		Status:     c.Query("status"),
		Keyword:    c.Query("keyword"),
		Page:       page,
		Size:       size,
	}
	contracts, total, err := h.svc.List(params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": gin.H{"items": contracts, "total": total, "page": page, "size": size}})
}

type transitionRequest struct {
	Target string `json:"target" binding:"required"`
}

func (h *ContractHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	contract, err := h.svc.TransitionStatus(c.Param("id"), req.Target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": contract})
}
