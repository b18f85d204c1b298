package repository

import (
	"errors"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"gorm.io/gorm"
)

type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) Create(b *entity.CommodityBatch) error {
	return r.db.Create(b).Error
}

func (r *BatchRepository) GetByID(id string) (*entity.CommodityBatch, error) {
	var b entity.CommodityBatch
	err := r.db.Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entity.NotFoundError{Entity: "batch", ID: id}
	}
	return &b, err
}

// GetByBatchNo 按批次号查询,用于收货幂等判断
func (r *BatchRepository) GetByBatchNo(batchNo string) (*entity.CommodityBatch, error) {
	var b entity.CommodityBatch
	err := r.db.Where("batch_no = ?", batchNo).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entity.NotFoundError{Entity: "batch", ID: batchNo}
	}
	return &b, err
}

// UpdateWithVersion 乐观锁更新批次重量与状态。
// 版本不匹配时不落任何修改,返回 ConcurrencyConflictError。
func (r *BatchRepository) UpdateWithVersion(b *entity.CommodityBatch) error {
	res := r.db.Model(&entity.CommodityBatch{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]interface{}{
			"current_weight": b.CurrentWeight,
			"status":         b.Status,
			"version":        b.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &entity.ConcurrencyConflictError{Entity: "batch", ID: b.ID}
	}
	b.Version++
	return nil
}

// Delete 物理删除批次,仅用于入账补偿
func (r *BatchRepository) Delete(id string) error {
	return r.db.Delete(&entity.CommodityBatch{}, "id = ?", id).Error
}

type BatchListParams struct {
	CommodityType string
	WarehouseID   string
	SupplierID    string
	Status        string
	Keyword       string
	Page          int
	Size          int
}

func (r *BatchRepository) List(params BatchListParams) ([]entity.CommodityBatch, int64, error) {
	query := r.db.Model(&entity.CommodityBatch{})
	if params.CommodityType != "" {
		query = query.Where("commodity_type = ?", params.CommodityType)
	}
	if params.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", params.WarehouseID)
	}
	if params.SupplierID != "" {
		query = query.Where("supplier_id = ?", params.SupplierID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("batch_no ILIKE ? OR commodity_type ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var batches []entity.CommodityBatch
	err := query.Preload("Warehouse").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&batches).Error
	return batches, total, err
}

// ListByParent 查询以指定批次为血缘来源的子批次
func (r *BatchRepository) ListByParent(parentID string) ([]entity.CommodityBatch, error) {
	var batches []entity.CommodityBatch
	err := r.db.Where("parent_batch_id = ?", parentID).Order("created_at").Find(&batches).Error
	return batches, err
}

// ListByContractItem 查询由指定合同明细收货产生的批次
func (r *BatchRepository) ListByContractItem(itemID string) ([]entity.CommodityBatch, error) {
	var batches []entity.CommodityBatch
	err := r.db.Where("contract_item_id = ?", itemID).Order("created_at").Find(&batches).Error
	return batches, err
}
