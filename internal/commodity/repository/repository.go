package repository

import "gorm.io/gorm"

// Repositories 商品域仓库集合
type Repositories struct {
	Warehouse *WarehouseRepository
	Supplier  *SupplierRepository
	Contract  *ContractRepository
	Batch     *BatchRepository
	Order     *OrderRepository
	Movement  *MovementRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Warehouse: NewWarehouseRepository(db),
		Supplier:  NewSupplierRepository(db),
		Contract:  NewContractRepository(db),
		Batch:     NewBatchRepository(db),
		Order:     NewOrderRepository(db),
		Movement:  NewMovementRepository(db),
	}
}
