package service

import (
	"fmt"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/google/uuid"
)

type WarehouseService struct {
	repo *repository.WarehouseRepository
}

func NewWarehouseService(repo *repository.WarehouseRepository) *WarehouseService {
	return &WarehouseService{repo: repo}
}

type CreateWarehouseRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Manager string `json:"manager"`
	Notes   string `json:"notes"`
}

func (s *WarehouseService) Create(req CreateWarehouseRequest) (*entity.Warehouse, error) {
	w := &entity.Warehouse{
		ID:      uuid.New().String(),
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
		Manager: req.Manager,
		Status:  entity.WarehouseStatusActive,
		Notes:   req.Notes,
	}
	if err := s.repo.Create(w); err != nil {
		return nil, fmt.Errorf("创建仓库失败: %w", err)
	}
	return w, nil
}

func (s *WarehouseService) GetByID(id string) (*entity.Warehouse, error) {
	return s.repo.GetByID(id)
}

func (s *WarehouseService) List(status string) ([]entity.Warehouse, error) {
	return s.repo.List(status)
}

func (s *WarehouseService) Deactivate(id string) error {
	w, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	w.Status = entity.WarehouseStatusInactive
	return s.repo.Update(w)
}
