package repository

import (
	"errors"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"gorm.io/gorm"
)

type WarehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

func (r *WarehouseRepository) Create(w *entity.Warehouse) error {
	return r.db.Create(w).Error
}

func (r *WarehouseRepository) GetByID(id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entity.NotFoundError{Entity: "warehouse", ID: id}
	}
	return &w, err
}

func (r *WarehouseRepository) Update(w *entity.Warehouse) error {
	return r.db.Save(w).Error
}

func (r *WarehouseRepository) List(status string) ([]entity.Warehouse, error) {
	query := r.db.Where("deleted_at IS NULL")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var whs []entity.Warehouse
	err := query.Order("code").Find(&whs).Error
	return whs, err
}
