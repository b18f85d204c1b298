package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus 商品批次状态
const (
	BatchStatusReceived    = "RECEIVED"    // 已收货,待质检
	BatchStatusApproved    = "APPROVED"    // 质检通过,可动用
	BatchStatusRejected    = "REJECTED"    // 质检拒收,冻结
	BatchStatusInProcess   = "IN_PROCESS"  // 部分投入加工
	BatchStatusConsumed    = "CONSUMED"    // 加工耗尽,终态
	BatchStatusTransferred = "TRANSFERRED" // 全量调拨出库,终态
)

// CommodityBatch 商品批次:一个物理独立、可追溯的库存货批。
// ReceivedWeight 创建后不变;CurrentWeight 只能由分配引擎变更,
// 且恒有 0 <= CurrentWeight <= ReceivedWeight。
type CommodityBatch struct {
	ID             string          `json:"id" gorm:"primaryKey;type:uuid"`
	BatchNo        string          `json:"batch_no" gorm:"size:50;not null;uniqueIndex"`
	CommodityType  string          `json:"commodity_type" gorm:"size:64;not null;index"`
	Grade          string          `json:"grade" gorm:"size:64"`
	SupplierID     string          `json:"supplier_id" gorm:"type:uuid;index"`
	ContractID     *string         `json:"contract_id" gorm:"type:uuid"`
	ContractItemID *string         `json:"contract_item_id" gorm:"type:uuid;index"`
	WarehouseID    string          `json:"warehouse_id" gorm:"type:uuid;not null;index"`
	ReceivedWeight decimal.Decimal `json:"received_weight" gorm:"type:decimal(20,4);not null"`
	CurrentWeight  decimal.Decimal `json:"current_weight" gorm:"type:decimal(20,4);not null"`
	Status         string          `json:"status" gorm:"size:20;not null;default:RECEIVED"`
	UnitCost       decimal.Decimal `json:"unit_cost" gorm:"type:decimal(20,4);not null;default:0"`
	Currency       string          `json:"currency" gorm:"size:10;not null;default:USD"`
	ParentBatchID  *string         `json:"parent_batch_id" gorm:"type:uuid;index"` // 血缘:调拨/加工来源批次
	SourceOrderID  *string         `json:"source_order_id" gorm:"type:uuid"`       // 产出该批次的加工单
	CreatedBy      string          `json:"created_by" gorm:"size:64;not null"`
	Version        int64           `json:"version" gorm:"not null;default:1"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Warehouse *Warehouse `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}

func (CommodityBatch) TableName() string {
	return "commodity_batches"
}

// Debitable 批次是否处于允许扣减的状态
func (b *CommodityBatch) Debitable() bool {
	return b.Status == BatchStatusApproved || b.Status == BatchStatusInProcess
}

// Terminal 终态批次不再允许任何变更
func (b *CommodityBatch) Terminal() bool {
	return b.Status == BatchStatusConsumed || b.Status == BatchStatusTransferred
}
