package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: se toma la primera coincidencia.
var errorMappings = []errorMapping{
	{domain.ErrDocumentNotFound, fiber.StatusNotFound, "DOCUMENT_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrIllegalTransition, fiber.StatusConflict, "ILLEGAL_TRANSITION"},
	{domain.ErrConcurrentModification, fiber.StatusConflict, "CONCURRENT_MODIFICATION"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrMissingInventoryRecord, fiber.StatusConflict, "MISSING_INVENTORY_RECORD"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrUnknownProduct, fiber.StatusUnprocessableEntity, "UNKNOWN_PRODUCT"},
	{domain.ErrEmptyItemSet, fiber.StatusUnprocessableEntity, "EMPTY_ITEMS"},
	{domain.ErrUnknownWarehouse, fiber.StatusBadRequest, "UNKNOWN_WAREHOUSE"},
	{domain.ErrInactiveWarehouse, fiber.StatusBadRequest, "INACTIVE_WAREHOUSE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// respondError traduce errores de dominio a HTTP. Lo desconocido (incluido StorageError) es 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
