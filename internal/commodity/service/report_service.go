package service

import (
	"fmt"
	"time"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService 后台导出:批次台账与调拨流水的 xlsx 报表
type ReportService struct {
	batchRepo    *repository.BatchRepository
	movementRepo *repository.MovementRepository
}

func NewReportService(br *repository.BatchRepository, mr *repository.MovementRepository) *ReportService {
	return &ReportService{batchRepo: br, movementRepo: mr}
}

var batchExportHeaders = []string{
	"批次号", "品种", "等级", "仓库", "收货重量", "现存重量", "状态", "单位成本", "币种", "来源批次", "创建时间",
}

// ExportBatches 批次台账导出
func (s *ReportService) ExportBatches(params repository.BatchListParams) (*excelize.File, string, error) {
	params.Page = 1
	params.Size = 10000
	batches, _, err := s.batchRepo.List(params)
	if err != nil {
		return nil, "", fmt.Errorf("查询批次失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "批次台账"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range batchExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, b := range batches {
		row := i + 2
		parent := ""
		if b.ParentBatchID != nil {
			parent = *b.ParentBatchID
		}
		warehouse := b.WarehouseID
		if b.Warehouse != nil {
			warehouse = b.Warehouse.Name
		}
		values := []interface{}{
			b.BatchNo, b.CommodityType, b.Grade, warehouse,
			b.ReceivedWeight.String(), b.CurrentWeight.String(), b.Status,
			b.UnitCost.String(), b.Currency, parent,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	filename := fmt.Sprintf("batches_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}

var movementExportHeaders = []string{
	"来源批次", "来源仓库", "目的仓库", "数量", "目的批次", "操作人", "时间",
}

// ExportMovements 调拨流水导出
func (s *ReportService) ExportMovements() (*excelize.File, string, error) {
	moves, err := s.movementRepo.ListAll()
	if err != nil {
		return nil, "", fmt.Errorf("查询调拨流水失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "调拨流水"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range movementExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, m := range moves {
		row := i + 2
		values := []interface{}{
			m.BatchID, m.SourceWarehouseID, m.DestWarehouseID,
			m.Quantity.String(), m.DestBatchID, m.CreatedBy,
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	filename := fmt.Sprintf("movements_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}
