package repository

import (
	"context"

	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// ProductRepository define el puerto de lectura/alta de productos (DIP).
type ProductRepository interface {
	Repository[entity.Product]
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
}
