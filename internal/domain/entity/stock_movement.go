package entity

import "time"

// MovementAction tipo de movimiento registrado en el diario.
type MovementAction string

const (
	MovementIn       MovementAction = "IN"       // entrada
	MovementOut      MovementAction = "OUT"      // salida
	MovementAdjust   MovementAction = "ADJUST"   // ajuste por conteo físico
	MovementTransfer MovementAction = "TRANSFER" // traslado, lado origen
)

// StockMovement hecho inmutable: un delta aplicado al libro de inventario.
type StockMovement struct {
	ID          string
	ProductID   string
	WarehouseID string
	Action      MovementAction
	Quantity    int64  // con signo: positivo entra, negativo sale
	ActorID     string // usuario que ejecutó la transición
	Reference   string // "<tipo> - <número>"
	DocumentID  string
	CreatedAt   time.Time
}

// Key devuelve la clave de inventario afectada.
func (m *StockMovement) Key() InventoryKey {
	return InventoryKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
}
