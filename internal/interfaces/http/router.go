package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Bodega-api/internal/application/inventory"
	"github.com/jhoicas/Bodega-api/internal/application/usecase"
	"github.com/jhoicas/Bodega-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine      *inventory.Engine
	Reports     *inventory.Reports
	WarehouseUC *usecase.WarehouseUseCase
	ProductUC   *usecase.ProductUseCase
	JWTSecret   string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	operators := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	admins := RequireRole(jwt.RoleAdmin)

	// Catálogo
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", admins, warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Patch("/:id/active", admins, warehouseHandler.SetActive)

	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", admins, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Documentos: /number/:number antes que /:id/pdf (mismo número de segmentos)
	documents := api.Group("/documents")
	documentHandler := NewDocumentHandler(deps.Engine, deps.Reports)
	documents.Get("/", documentHandler.List)
	documents.Get("/number/:number", documentHandler.GetByNumber)
	documents.Get("/:id/pdf", documentHandler.PDF)
	documents.Get("/:id", documentHandler.GetByID)
	documents.Post("/:id/advance", operators, documentHandler.Advance)
	documents.Post("/:id/execute", operators, documentHandler.Execute)
	documents.Post("/:id/confirm", operators, documentHandler.Confirm)
	documents.Post("/:kind", documentHandler.Create)

	// Libro y diario
	inventoryHandler := NewInventoryHandler(deps.Engine, deps.Reports)
	api.Get("/inventory", inventoryHandler.Inventory)
	api.Get("/movements/export", inventoryHandler.Export)
	api.Get("/movements", inventoryHandler.Movements)
}
