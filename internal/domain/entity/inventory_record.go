package entity

import (
	"strings"
	"time"
)

// InventoryKey identifica una fila del libro de inventario.
type InventoryKey struct {
	ProductID   string
	WarehouseID string
}

// Less orden global usado para tomar bloqueos (bodega, producto).
func (k InventoryKey) Less(o InventoryKey) bool {
	if c := strings.Compare(k.WarehouseID, o.WarehouseID); c != 0 {
		return c < 0
	}
	return k.ProductID < o.ProductID
}

func (k InventoryKey) String() string {
	return k.ProductID + "@" + k.WarehouseID
}

// InventoryRecord cantidad disponible de un producto en una bodega. Nunca negativa.
type InventoryRecord struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Key devuelve la clave (producto, bodega) del registro.
func (r *InventoryRecord) Key() InventoryKey {
	return InventoryKey{ProductID: r.ProductID, WarehouseID: r.WarehouseID}
}
