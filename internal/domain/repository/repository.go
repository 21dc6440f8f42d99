package repository

import "context"

// Repository operaciones CRUD comunes, parametrizadas por entidad.
// Los repositorios concretos la componen y agregan sus propias consultas.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, limit, offset int) ([]*T, error)
}
