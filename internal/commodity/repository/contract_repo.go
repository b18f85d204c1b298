package repository

import (
	"errors"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"gorm.io/gorm"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(c *entity.PurchaseContract) error {
	return r.db.Create(c).Error
}

func (r *ContractRepository) GetByID(id string) (*entity.PurchaseContract, error) {
	var c entity.PurchaseContract
	err := r.db.Preload("Items").Preload("Supplier").
		Where("id = ? AND deleted_at IS NULL", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entity.NotFoundError{Entity: "contract", ID: id}
	}
	return &c, err
}

func (r *ContractRepository) GetItemByID(itemID string) (*entity.PurchaseContractItem, error) {
	var item entity.PurchaseContractItem
	err := r.db.Where("id = ?", itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entity.NotFoundError{Entity: "contract item", ID: itemID}
	}
	return &item, err
}

// UpdateStatusWithVersion 乐观锁更新合同状态
func (r *ContractRepository) UpdateStatusWithVersion(c *entity.PurchaseContract) error {
	res := r.db.Model(&entity.PurchaseContract{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]interface{}{
			"status":  c.Status,
			"version": c.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &entity.ConcurrencyConflictError{Entity: "contract", ID: c.ID}
	}
	c.Version++
	return nil
}

// UpdateItemWithVersion 乐观锁更新合同明细的交付进度。
// 交付累计的唯一写入口,防止并发收货双计。
func (r *ContractRepository) UpdateItemWithVersion(item *entity.PurchaseContractItem) error {
	res := r.db.Model(&entity.PurchaseContractItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"delivered_qty": item.DeliveredQty,
			"status":        item.Status,
			"version":       item.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &entity.ConcurrencyConflictError{Entity: "contract item", ID: item.ID}
	}
	item.Version++
	return nil
}

type ContractListParams struct {
	SupplierID string
	Status     string
	Keyword    string
	Page       int
	Size       int
}

func (r *ContractRepository) List(params ContractListParams) ([]entity.PurchaseContract, int64, error) {
	query := r.db.Model(&entity.PurchaseContract{}).Where("deleted_at IS NULL")
	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("contract_no ILIKE ?", kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var contracts []entity.PurchaseContract
	err := query.Preload("Items").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&contracts).Error
	return contracts, total, err
}
