package entity

import (
	"time"
)

// WarehouseStatus 仓库状态
const (
	WarehouseStatusActive   = "ACTIVE"
	WarehouseStatusInactive = "INACTIVE"
)

// Warehouse 仓库:批次所在位置的主数据
type Warehouse struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code      string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name      string     `json:"name" gorm:"size:100;not null"`
	Address   string     `json:"address" gorm:"size:500"`
	Manager   string     `json:"manager" gorm:"size:64"`
	Status    string     `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	Notes     string     `json:"notes" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
}

func (Warehouse) TableName() string {
	return "commodity_warehouses"
}
