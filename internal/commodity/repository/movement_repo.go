package repository

import (
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"gorm.io/gorm"
)

type MovementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) Create(m *entity.BatchMovement) error {
	return r.db.Create(m).Error
}

// ListByBatch 查询与指定批次相关的调拨流水(作为来源或目的)
func (r *MovementRepository) ListByBatch(batchID string) ([]entity.BatchMovement, error) {
	var moves []entity.BatchMovement
	err := r.db.Where("batch_id = ? OR dest_batch_id = ?", batchID, batchID).
		Order("created_at").Find(&moves).Error
	return moves, err
}

func (r *MovementRepository) List(page, size int) ([]entity.BatchMovement, int64, error) {
	query := r.db.Model(&entity.BatchMovement{})
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var moves []entity.BatchMovement
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&moves).Error
	return moves, total, err
}

// ListAll 全量流水,用于导出
func (r *MovementRepository) ListAll() ([]entity.BatchMovement, error) {
	var moves []entity.BatchMovement
	err := r.db.Order("created_at").Find(&moves).Error
	return moves, err
}
