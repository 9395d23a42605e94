package entity

import "time"

// Supplier proveedor al que se emiten órdenes de compra.
type Supplier struct {
	ID            int64
	Name          string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
