package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Ciclo de vida de documentos y libro de inventario.
	ErrDocumentNotFound       = errors.New("documento no encontrado")
	ErrIllegalTransition      = errors.New("transición de estado no permitida")
	ErrConcurrentModification = errors.New("el documento fue modificado por otra operación")
	ErrMissingInventoryRecord = errors.New("no existe registro de inventario")
	ErrUnknownProduct         = errors.New("producto inexistente")
	ErrUnknownWarehouse       = errors.New("bodega inexistente")
	ErrInactiveWarehouse      = errors.New("bodega inactiva")
	ErrEmptyItemSet           = errors.New("el documento no tiene líneas")
)

// IllegalTransitionError transición pedida que no es el sucesor único del estado actual.
type IllegalTransitionError struct {
	Kind string
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: %s %s -> %s", ErrIllegalTransition, e.Kind, e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// InsufficientStockError la cantidad resultante en el libro quedaría negativa.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Required    int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: producto %s en bodega %s (requerido %d, disponible %d)",
		ErrInsufficientStock, e.ProductID, e.WarehouseID, e.Required, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// MissingInventoryRecordError salida contra un par (producto, bodega) nunca abastecido.
type MissingInventoryRecordError struct {
	ProductID   string
	WarehouseID string
}

func (e *MissingInventoryRecordError) Error() string {
	return fmt.Sprintf("%s: producto %s en bodega %s", ErrMissingInventoryRecord, e.ProductID, e.WarehouseID)
}

func (e *MissingInventoryRecordError) Unwrap() error { return ErrMissingInventoryRecord }

// UnknownProductError línea que referencia un producto inexistente o inactivo.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownProduct, e.ProductID)
}

func (e *UnknownProductError) Unwrap() error { return ErrUnknownProduct }

// InactiveWarehouseError documento que referencia una bodega deshabilitada.
type InactiveWarehouseError struct {
	WarehouseID string
}

func (e *InactiveWarehouseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInactiveWarehouse, e.WarehouseID)
}

func (e *InactiveWarehouseError) Unwrap() error { return ErrInactiveWarehouse }

// ConcurrentModificationError el documento ya no está en el estado que se validó antes de la transacción.
type ConcurrentModificationError struct {
	DocumentID string
	Expected   string
	Actual     string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: documento %s (esperado %s, actual %s)",
		ErrConcurrentModification, e.DocumentID, e.Expected, e.Actual)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }

// StorageError falla de infraestructura (conexión, restricción no prevista) distinta de los errores de negocio.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("almacenamiento (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

var businessErrors = []error{
	ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrUnauthorized, ErrForbidden,
	ErrInsufficientStock, ErrDocumentNotFound, ErrIllegalTransition, ErrConcurrentModification,
	ErrMissingInventoryRecord, ErrUnknownProduct, ErrUnknownWarehouse, ErrInactiveWarehouse,
	ErrEmptyItemSet,
}

// IsBusinessError indica si err pertenece a la taxonomía de dominio (recuperable, se informa al llamador).
func IsBusinessError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
