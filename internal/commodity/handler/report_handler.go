package handler

import (
	"net/http"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/service"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportBatches GET /reports/batches
func (h *ReportHandler) ExportBatches(c *gin.Context) {
	params := repository.BatchListParams{
		CommodityType: c.Query("commodity_type"),
		WarehouseID:   c.Query("warehouse_id"),
		Status:        c.Query("status"),
	}
	f, filename, err := h.svc.ExportBatches(params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}

// ExportMovements GET /reports/movements
func (h *ReportHandler) ExportMovements(c *gin.Context) {
	f, filename, err := h.svc.ExportMovements()
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
	}
}
