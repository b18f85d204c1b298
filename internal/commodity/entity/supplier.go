package entity

import (
	"time"
)

// SupplierStatus 供应商状态
const (
	SupplierStatusActive    = "ACTIVE"
	SupplierStatusInactive  = "INACTIVE"
	SupplierStatusBlacklist = "BLACKLIST"
)

// Supplier 供应商:合同与批次引用的主数据
type Supplier struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid"`
	Code        string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name        string     `json:"name" gorm:"size:200;not null"`
	ContactName string     `json:"contact_name" gorm:"size:100"`
	Phone       string     `json:"phone" gorm:"size:20"`
	Email       string     `json:"email" gorm:"size:100"`
	Address     string     `json:"address" gorm:"size:500"`
	Status      string     `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedBy   string     `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`
}

func (Supplier) TableName() string {
	return "commodity_suppliers"
}
