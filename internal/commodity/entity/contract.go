package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractStatus 采购合同状态
const (
	ContractStatusDraft     = "DRAFT"
	ContractStatusSubmitted = "SUBMITTED"
	ContractStatusActive    = "ACTIVE"
	ContractStatusCompleted = "COMPLETED"
	ContractStatusCancelled = "CANCELLED"
)

// contractTransitions 合同状态机:状态按顺序单向推进,CANCELLED 仅限未生效的合同
var contractTransitions = map[string][]string{
	ContractStatusDraft:     {ContractStatusSubmitted, ContractStatusCancelled},
	ContractStatusSubmitted: {ContractStatusActive, ContractStatusCancelled},
	ContractStatusActive:    {ContractStatusCompleted},
}

// CanTransitionContract 判断合同状态流转是否合法
func CanTransitionContract(from, to string) bool {
	for _, t := range contractTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// PurchaseContract 采购合同
type PurchaseContract struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid"`
	ContractNo    string     `json:"contract_no" gorm:"size:50;not null;uniqueIndex"`
	SupplierID    string     `json:"supplier_id" gorm:"type:uuid;not null;index"`
	Status        string     `json:"status" gorm:"size:20;not null;default:DRAFT"`
	Currency      string     `json:"currency" gorm:"size:10;not null;default:USD"`
	ContractDate  *time.Time `json:"contract_date"`
	DeliveryStart *time.Time `json:"delivery_start"`
	DeliveryEnd   *time.Time `json:"delivery_end"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedBy     string     `json:"created_by" gorm:"size:64;not null"`
	Version       int64      `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`

	Supplier *Supplier              `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Items    []PurchaseContractItem `json:"items,omitempty" gorm:"foreignKey:ContractID"`
}

func (PurchaseContract) TableName() string {
	return "commodity_contracts"
}

// ContractItemStatus 合同明细交付状态
const (
	ItemStatusOpen      = "OPEN"
	ItemStatusPartial   = "PARTIAL"
	ItemStatusFulfilled = "FULFILLED"
)

// PurchaseContractItem 合同明细:一个品种一行,独立跟踪交付进度。
// 明细从属于合同,不作为独立聚合根被引用。
type PurchaseContractItem struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid"`
	ContractID    string          `json:"contract_id" gorm:"type:uuid;not null;index"`
	CommodityType string          `json:"commodity_type" gorm:"size:64;not null"`
	Grade         string          `json:"grade" gorm:"size:64"`
	ContractedQty decimal.Decimal `json:"contracted_qty" gorm:"type:decimal(20,4);not null"`
	UnitPrice     decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,4);not null"`
	DeliveredQty  decimal.Decimal `json:"delivered_qty" gorm:"type:decimal(20,4);not null;default:0"`
	Status        string          `json:"status" gorm:"size:20;not null;default:OPEN"`
	Version       int64           `json:"version" gorm:"not null;default:1"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Contract *PurchaseContract `json:"contract,omitempty" gorm:"foreignKey:ContractID"`
}

func (PurchaseContractItem) TableName() string {
	return "commodity_contract_items"
}

// RemainingQty 未交付数量
func (i *PurchaseContractItem) RemainingQty() decimal.Decimal {
	return i.ContractedQty.Sub(i.DeliveredQty)
}
