package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/application/inventory"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// InventoryHandler consultas del libro de inventario y del diario de movimientos (protegido).
type InventoryHandler struct {
	engine  *inventory.Engine
	reports *inventory.Reports
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.Engine, reports *inventory.Reports) *InventoryHandler {
	return &InventoryHandler{engine: engine, reports: reports}
}

// Inventory godoc
// @Summary      Existencias por producto, por bodega o de un par
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {array}   dto.InventoryRecordResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) Inventory(c *fiber.Ctx) error {
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	var (
		list []*entity.InventoryRecord
		err  error
	)
	switch {
	case productID != "" && warehouseID != "":
		qty, qerr := h.engine.LedgerQuantity(c.UserContext(), productID, warehouseID)
		if qerr != nil {
			return respondError(c, qerr)
		}
		return c.JSON([]dto.InventoryRecordResponse{{ProductID: productID, WarehouseID: warehouseID, Quantity: qty}})
	case productID != "":
		list, err = h.engine.InventoryByProduct(c.UserContext(), productID)
	case warehouseID != "":
		list, err = h.engine.InventoryByWarehouse(c.UserContext(), warehouseID)
	default:
		return badRequest(c, "VALIDATION", "product_id o warehouse_id es requerido")
	}
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.InventoryRecordResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.ToInventoryRecordResponse(r))
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Diario de movimientos
// @Description  Filtra por document_id, actor_id, par product_id+warehouse_id o, por defecto, desde since (RFC3339).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        since         query  string  false  "Desde (RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(100)
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        actor_id      query  string  false  "Usuario"
// @Param        document_id   query  string  false  "Documento"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var (
		list []*entity.StockMovement
		err  error
	)
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	switch {
	case c.Query("document_id") != "":
		list, err = h.engine.MovementsForDocument(ctx, c.Query("document_id"))
	case c.Query("actor_id") != "":
		list, err = h.engine.MovementsForActor(ctx, c.Query("actor_id"))
	case productID != "" || warehouseID != "":
		if productID == "" || warehouseID == "" {
			return badRequest(c, "VALIDATION", "product_id y warehouse_id van juntos")
		}
		list, err = h.engine.MovementsForInventory(ctx, entity.InventoryKey{ProductID: productID, WarehouseID: warehouseID})
	default:
		since, perr := parseSince(c.Query("since"))
		if perr != nil {
			return badRequest(c, "INVALID_SINCE", perr.Error())
		}
		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 1000 {
			limit = 100
		}
		list, err = h.engine.MovementsSince(ctx, since, limit)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToMovementResponses(list))
}

// Export godoc
// @Summary      Exportar movimientos a Excel
// @Tags         inventory
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        since  query  string  false  "Desde (RFC3339)"
// @Success      200  {file}  binary
// @Router       /api/movements/export [get]
func (h *InventoryHandler) Export(c *fiber.Ctx) error {
	since, err := parseSince(c.Query("since"))
	if err != nil {
		return badRequest(c, "INVALID_SINCE", err.Error())
	}
	out, err := h.reports.MovementsWorkbook(c.UserContext(), since, 0)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="movimientos_%s.xlsx"`, time.Now().Format("20060102_150405")))
	return c.Send(out)
}

// parseSince vacío equivale al inicio de los tiempos.
func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("since debe ser RFC3339: %q", s)
	}
	return t, nil
}
