package dto

import (
	"time"

	"github.com/jhoicas/pos-inventario-api/internal/domain/entity"
)

// CreateSupplierRequest body para POST /api/suppliers.
type CreateSupplierRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	ContactPerson string `json:"contact_person" validate:"max=255"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	Phone         string `json:"phone" validate:"max=50"`
	Address       string `json:"address" validate:"max=500"`
	IsActive      *bool  `json:"is_active"`
}

// UpdateSupplierRequest campos opcionales; los ausentes no cambian.
type UpdateSupplierRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=255"`
	Email         *string `json:"email" validate:"omitempty,email,max=255"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	IsActive      *bool   `json:"is_active"`
}

type SupplierResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SupplierListResponse struct {
	Items []SupplierResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

func NewSupplierResponse(s *entity.Supplier) *SupplierResponse {
	if s == nil {
		return nil
	}
	return &SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Email:         s.Email,
		Phone:         s.Phone,
		Address:       s.Address,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
