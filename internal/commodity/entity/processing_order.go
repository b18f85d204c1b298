package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessingOrderStatus 加工单状态
const (
	OrderStatusPlanned    = "PLANNED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// orderTransitions 加工单状态机
var orderTransitions = map[string][]string{
	OrderStatusPlanned:    {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransitionOrder 判断加工单状态流转是否合法
func CanTransitionOrder(from, to string) bool {
	for _, t := range orderTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ProcessingOrder 加工单:将若干投入批次转化为产出批次(清选、碾磨等)。
// LossWeight 为完工时显式记录的工艺损耗,投入与产出的差额不允许隐式消失。
type ProcessingOrder struct {
	ID                string          `json:"id" gorm:"primaryKey;type:uuid"`
	OrderNo           string          `json:"order_no" gorm:"size:50;not null;uniqueIndex"`
	ProcessType       string          `json:"process_type" gorm:"size:32;not null"` // CLEANING, MILLING, DRYING...
	Status            string          `json:"status" gorm:"size:20;not null;default:PLANNED"`
	OutputWarehouseID string          `json:"output_warehouse_id" gorm:"type:uuid"`
	LossWeight        decimal.Decimal `json:"loss_weight" gorm:"type:decimal(20,4);not null;default:0"`
	Notes             string          `json:"notes" gorm:"type:text"`
	CreatedBy         string          `json:"created_by" gorm:"size:64;not null"`
	StartedAt         *time.Time      `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at"`
	CancelledAt       *time.Time      `json:"cancelled_at"`
	Version           int64           `json:"version" gorm:"not null;default:1"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	Inputs  []ProcessingInput  `json:"inputs,omitempty" gorm:"foreignKey:OrderID"`
	Outputs []ProcessingOutput `json:"outputs,omitempty" gorm:"foreignKey:OrderID"`
}

func (ProcessingOrder) TableName() string {
	return "commodity_processing_orders"
}

// ProcessingInput 加工单投入:PLANNED 阶段只是计划量,
// DebitedQty 在启动时写入,表示已实际从批次扣减的数量。
type ProcessingInput struct {
	ID         string          `json:"id" gorm:"primaryKey;type:uuid"`
	OrderID    string          `json:"order_id" gorm:"type:uuid;not null;index"`
	BatchID    string          `json:"batch_id" gorm:"type:uuid;not null;index"`
	BatchNo    string          `json:"batch_no" gorm:"size:50"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:decimal(20,4);not null"`
	DebitedQty decimal.Decimal `json:"debited_qty" gorm:"type:decimal(20,4);not null;default:0"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (ProcessingInput) TableName() string {
	return "commodity_processing_inputs"
}

// ProcessingOutput 加工单产出,仅在 COMPLETED 时写入
type ProcessingOutput struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid"`
	OrderID       string          `json:"order_id" gorm:"type:uuid;not null;index"`
	BatchID       string          `json:"batch_id" gorm:"type:uuid;not null"`
	BatchNo       string          `json:"batch_no" gorm:"size:50"`
	CommodityType string          `json:"commodity_type" gorm:"size:64;not null"`
	Weight        decimal.Decimal `json:"weight" gorm:"type:decimal(20,4);not null"`
	WarehouseID   string          `json:"warehouse_id" gorm:"type:uuid;not null"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (ProcessingOutput) TableName() string {
	return "commodity_processing_outputs"
}

// TotalDebited 已扣减的投入总量
func (o *ProcessingOrder) TotalDebited() decimal.Decimal {
	total := decimal.Zero
	for _, in := range o.Inputs {
		total = total.Add(in.DebitedQty)
	}
	return total
}
