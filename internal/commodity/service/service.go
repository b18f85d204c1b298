package service

import (
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/redis/go-redis/v9"
)

// Services 商品域服务集合
type Services struct {
	Warehouse  *WarehouseService
	Supplier   *SupplierService
	Contract   *ContractService
	Receipt    *ReceiptService
	Allocation *AllocationService
	Processing *ProcessingService
	Transfer   *TransferService
	Report     *ReportService
}

func NewServices(repos *repository.Repositories, rdb *redis.Client) *Services {
	allocation := NewAllocationService(repos.Batch)
	contract := NewContractService(repos.Contract, repos.Supplier)
	return &Services{
		Warehouse:  NewWarehouseService(repos.Warehouse),
		Supplier:   NewSupplierService(repos.Supplier),
		Contract:   contract,
		Receipt:    NewReceiptService(repos.Batch, repos.Warehouse, repos.Supplier, contract, rdb),
		Allocation: allocation,
		Processing: NewProcessingService(repos.Order, repos.Batch, repos.Warehouse, allocation),
		Transfer:   NewTransferService(repos.Batch, repos.Warehouse, repos.Movement, allocation),
		Report:     NewReportService(repos.Batch, repos.Movement),
	}
}
