package service

import (
	"fmt"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/google/uuid"
)

type SupplierService struct {
	repo *repository.SupplierRepository
}

func NewSupplierService(repo *repository.SupplierRepository) *SupplierService {
	return &SupplierService{repo: repo}
}

type CreateSupplierRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func (s *SupplierService) Create(req CreateSupplierRequest, userID string) (*entity.Supplier, error) {
	sup := &entity.Supplier{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Name:        req.Name,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Status:      entity.SupplierStatusActive,
		Notes:       req.Notes,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(sup); err != nil {
		return nil, fmt.Errorf("创建供应商失败: %w", err)
	}
	return sup, nil
}

func (s *SupplierService) GetByID(id string) (*entity.Supplier, error) {
	return s.repo.GetByID(id)
}

func (s *SupplierService) List(params repository.SupplierListParams) ([]entity.Supplier, int64, error) {
	return s.repo.List(params)
}

func (s *SupplierService) UpdateStatus(id, status string) error {
	sup, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	switch status {
	case entity.SupplierStatusActive, entity.SupplierStatusInactive, entity.SupplierStatusBlacklist:
	default:
		return &entity.ValidationError{Field: "status", Msg: "未知状态"}
	}
	sup.Status = status
	return s.repo.Update(sup)
}
