package repository

import (
	"errors"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *entity.ProcessingOrder) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id string) (*entity.ProcessingOrder, error) {
	var o entity.ProcessingOrder
	err := r.db.Preload("Inputs").Preload("Outputs").
		Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entity.NotFoundError{Entity: "processing order", ID: id}
	}
	return &o, err
}

// UpdateWithVersion 乐观锁更新加工单状态与损耗
func (r *OrderRepository) UpdateWithVersion(o *entity.ProcessingOrder) error {
	res := r.db.Model(&entity.ProcessingOrder{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]interface{}{
			"status":       o.Status,
			"loss_weight":  o.LossWeight,
			"started_at":   o.StartedAt,
			"completed_at": o.CompletedAt,
			"cancelled_at": o.CancelledAt,
			"version":      o.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &entity.ConcurrencyConflictError{Entity: "processing order", ID: o.ID}
	}
	o.Version++
	return nil
}

func (r *OrderRepository) UpdateInput(in *entity.ProcessingInput) error {
	return r.db.Save(in).Error
}

func (r *OrderRepository) CreateOutput(out *entity.ProcessingOutput) error {
	return r.db.Create(out).Error
}

// DeleteOutput 删除产出记录,仅用于完工补偿
func (r *OrderRepository) DeleteOutput(id string) error {
	return r.db.Delete(&entity.ProcessingOutput{}, "id = ?", id).Error
}

type OrderListParams struct {
	Status      string
	ProcessType string
	Keyword     string
	Page        int
	Size        int
}

func (r *OrderRepository) List(params OrderListParams) ([]entity.ProcessingOrder, int64, error) {
	query := r.db.Model(&entity.ProcessingOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ProcessType != "" {
		query = query.Where("process_type = ?", params.ProcessType)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("order_no ILIKE ?", kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var orders []entity.ProcessingOrder
	err := query.Preload("Inputs").Preload("Outputs").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&orders).Error
	return orders, total, err
}
