package repository

import (
	"errors"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(s *entity.Supplier) error {
	return r.db.Create(s).Error
}

func (r *SupplierRepository) GetByID(id string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &entity.NotFoundError{Entity: "supplier", ID: id}
	}
	return &s, err
}

func (r *SupplierRepository) Update(s *entity.Supplier) error {
	return r.db.Save(s).Error
}

type SupplierListParams struct {
	Status  string
	Keyword string
	Page    int
	Size    int
}

func (r *SupplierRepository) List(params SupplierListParams) ([]entity.Supplier, int64, error) {
	query := r.db.Model(&entity.Supplier{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var suppliers []entity.Supplier
	err := query.Order("code").Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&suppliers).Error
	return suppliers, total, err
}
