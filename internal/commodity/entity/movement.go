package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchMovement 批次调拨流水。仅追加,创建后永不变更。
type BatchMovement struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid"`
	BatchID           string          `json:"batch_id" gorm:"type:uuid;not null;index"`
	SourceWarehouseID string          `json:"source_warehouse_id" gorm:"type:uuid;not null"`
	DestWarehouseID   string          `json:"dest_warehouse_id" gorm:"type:uuid;not null"`
	Quantity          decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	DestBatchID       string          `json:"dest_batch_id" gorm:"type:uuid;not null;index"`
	CreatedBy         string          `json:"created_by" gorm:"size:64;not null"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (BatchMovement) TableName() string {
	return "commodity_batch_movements"
}
