package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
// Un documento solo puede referenciar bodegas activas.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
