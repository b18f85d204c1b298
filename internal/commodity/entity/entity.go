package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移所有商品域表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&Warehouse{},
		&Supplier{},

		// 合同
		&PurchaseContract{},
		&PurchaseContractItem{},

		// 批次
		&CommodityBatch{},
		&BatchMovement{},

		// 加工
		&ProcessingOrder{},
		&ProcessingInput{},
		&ProcessingOutput{},
	)
}
