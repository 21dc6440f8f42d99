package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Bodega-api/internal/application/dto"
	"github.com/jhoicas/Bodega-api/internal/application/inventory"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// DocumentHandler ciclo de vida de documentos de bodega (protegido).
type DocumentHandler struct {
	engine  *inventory.Engine
	reports *inventory.Reports
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(engine *inventory.Engine, reports *inventory.Reports) *DocumentHandler {
	return &DocumentHandler{engine: engine, reports: reports}
}

// Create godoc
// @Summary      Crear documento (entrada, salida, traslado o conteo físico)
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        kind  path  string                   true  "inbound | outbound | transfer | stocktaking"
// @Param        body  body  dto.CreateDocumentInput  true  "Cabecera y líneas"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents/{kind} [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	kind := entity.DocumentKind(c.Params("kind"))
	if !kind.Valid() {
		return badRequest(c, "INVALID_KIND", fmt.Sprintf("tipo de documento desconocido: %q", kind))
	}
	var in dto.CreateDocumentInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	doc, err := h.engine.CreateDocument(c.UserContext(), kind, in, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToDocumentResponse(doc))
}

// Advance godoc
// @Summary      Avanzar el documento al estado indicado
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del documento"
// @Param        body  body  dto.AdvanceRequest  true  "Estado destino"
// @Success      200   {object}  dto.DocumentResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/advance [post]
func (h *DocumentHandler) Advance(c *fiber.Ctx) error {
	var in dto.AdvanceRequest
	if err := c.BodyParser(&in); err != nil || in.Status == "" {
		return badRequest(c, "INVALID_BODY", "status es requerido")
	}
	doc, err := h.engine.Advance(c.UserContext(), c.Params("id"), entity.DocumentStatus(in.Status), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

// Execute godoc
// @Summary      Ejecutar el documento (aplica entrada, salida o traslado al inventario)
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/execute [post]
func (h *DocumentHandler) Execute(c *fiber.Ctx) error {
	doc, err := h.engine.Execute(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

// Confirm godoc
// @Summary      Confirmar el documento (en conteo físico aplica las diferencias)
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/confirm [post]
func (h *DocumentHandler) Confirm(c *fiber.Ctx) error {
	doc, err := h.engine.Confirm(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

// GetByID godoc
// @Summary      Obtener documento por ID
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	doc, err := h.engine.GetDocument(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

// GetByNumber godoc
// @Summary      Obtener documento por número
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "Número, ej. IN20260301-000001"
// @Success      200     {object}  dto.DocumentResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/documents/number/{number} [get]
func (h *DocumentHandler) GetByNumber(c *fiber.Ctx) error {
	doc, err := h.engine.GetDocumentByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc))
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind          query  string  false  "Tipo"
// @Param        status        query  string  false  "Estado"
// @Param        warehouse_id  query  string  false  "Bodega (origen o destino)"
// @Param        created_by    query  string  false  "Creador"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	var f dto.DocumentFilter
	if err := c.QueryParser(&f); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	f.Normalize()
	list, err := h.engine.ListDocuments(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.DocumentListResponse{
		Items: make([]dto.DocumentResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}
	for _, d := range list {
		out.Items = append(out.Items, dto.ToDocumentResponse(d))
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Hoja imprimible del documento
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/pdf [get]
func (h *DocumentHandler) PDF(c *fiber.Ctx) error {
	out, number, err := h.reports.DocumentSheet(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, number))
	return c.Send(out)
}
