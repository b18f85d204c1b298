package handler

import (
	"errors"
	"net/http"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/service"
	"github.com/gin-gonic/gin"
)

// Handlers 商品域 HTTP 处理器集合
type Handlers struct {
	Warehouse  *WarehouseHandler
	Supplier   *SupplierHandler
	Contract   *ContractHandler
	Batch      *BatchHandler
	Processing *ProcessingHandler
	Report     *ReportHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Warehouse:  NewWarehouseHandler(services.Warehouse),
		Supplier:   NewSupplierHandler(services.Supplier),
		Contract:   NewContractHandler(services.Contract),
		Batch:      NewBatchHandler(services.Receipt, services.Transfer),
		Processing: NewProcessingHandler(services.Processing),
		Report:     NewReportHandler(services.Report),
	}
}

// writeError 把类型化业务错误映射到统一响应封套
func writeError(c *gin.Context, err error) {
	var (
		validation   *entity.ValidationError
		notFound     *entity.NotFoundError
		transition   *entity.InvalidStateTransition
		batchState   *entity.InvalidBatchStateError
		overDelivery *entity.OverDeliveryError
		insufficient *entity.InsufficientQuantityError
		conflict     *entity.ConcurrencyConflictError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
	case errors.As(err, &transition), errors.As(err, &batchState):
		c.JSON(http.StatusConflict, gin.H{"code": 10003, "message": err.Error()})
	case errors.As(err, &overDelivery), errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{"code": 10004, "message": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"code": 10005, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

func userID(c *gin.Context) string {
	if v, exists := c.Get("user_id"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
