package entity

import "time"

// Product referencia de catálogo; el motor solo la consulta para validar líneas.
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	UnitMeasure string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
