package repository

import (
	"context"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// DocumentFilter criterios de listado. WarehouseID coincide con origen o destino.
type DocumentFilter struct {
	Kind        entity.DocumentKind
	Status      entity.DocumentStatus
	WarehouseID string
	CreatedBy   string
	Limit       int
	Offset      int
}

// DocumentRepository persistencia de documentos y sus líneas.
// Create guarda la cabecera y todas sus líneas; un número repetido devuelve domain.ErrDuplicate.
type DocumentRepository interface {
	Repository[entity.Document]
	GetByNumber(ctx context.Context, number string) (*entity.Document, error)
	// GetForUpdate relee el documento bloqueando la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	ListItems(ctx context.Context, documentID string) ([]entity.DocumentItem, error)
	ListByFilter(ctx context.Context, filter DocumentFilter) ([]*entity.Document, error)
	// UpdateStatus persiste estado y sellos solo si el estado actual sigue siendo from.
	// Devuelve false si otra operación lo cambió antes.
	UpdateStatus(ctx context.Context, doc *entity.Document, from entity.DocumentStatus) (bool, error)
}
