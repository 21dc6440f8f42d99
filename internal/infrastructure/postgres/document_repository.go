package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
	"github.com/jhoicas/Bodega-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo documentos y líneas sobre documents / document_items (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, number, kind, warehouse_id, target_warehouse_id, status, partner, outbound_type, remark,
	created_by, approved_by, approved_at, executed_by, executed_at, confirmed_by, confirmed_at, created_at, updated_at`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d                                     entity.Document
		kind, status                          string
		target, approvedBy, executedBy, confBy *string
	)
	err := row.Scan(&d.ID, &d.Number, &kind, &d.WarehouseID, &target, &status, &d.Partner, &d.OutboundType, &d.Remark,
		&d.CreatedBy, &approvedBy, &d.ApprovedAt, &executedBy, &d.ExecutedAt, &confBy, &d.ConfirmedAt,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Kind = entity.DocumentKind(kind)
	d.Status = entity.DocumentStatus(status)
	d.TargetWarehouseID = deref(target)
	d.ApprovedBy = deref(approvedBy)
	d.ExecutedBy = deref(executedBy)
	d.ConfirmedBy = deref(confBy)
	return &d, nil
}

// Create inserta cabecera y líneas. Llamar dentro de una tx para que sean atómicas.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		d.ID, d.Number, string(d.Kind), d.WarehouseID, nullable(d.TargetWarehouseID), string(d.Status),
		d.Partner, d.OutboundType, d.Remark, d.CreatedBy,
		nullable(d.ApprovedBy), d.ApprovedAt, nullable(d.ExecutedBy), d.ExecutedAt,
		nullable(d.ConfirmedBy), d.ConfirmedAt, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create document: %w", err)
	}
	for i := range d.Items {
		it := &d.Items[i]
		it.DocumentID = d.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO document_items (id, document_id, line_no, product_id, quantity, unit_price, remark, system_qty, diff_qty)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, it.DocumentID, i+1, it.ProductID, it.Quantity, it.UnitPrice, it.Remark, it.SystemQty, it.DiffQty,
		)
		if err != nil {
			return fmt.Errorf("create document item: %w", duplicateOr(err))
		}
	}
	return nil
}

// GetByID obtiene la cabecera. Nil si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByNumber obtiene la cabecera por número.
func (r *DocumentRepo) GetByNumber(ctx context.Context, number string) (*entity.Document, error) {
	return r.getOne(ctx, `WHERE number = $1`, number)
}

// GetForUpdate relee la cabecera bloqueando la fila hasta el fin de la tx.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, `WHERE id = $1 FOR UPDATE`, id)
}

func (r *DocumentRepo) getOne(ctx context.Context, clause string, arg string) (*entity.Document, error) {
	d, err := scanDocument(r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents `+clause, arg))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// List cabeceras, más recientes primero.
func (r *DocumentRepo) List(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	return r.ListByFilter(ctx, repository.DocumentFilter{Limit: limit, Offset: offset})
}

// ListByFilter arma el WHERE según los filtros presentes.
func (r *DocumentRepo) ListByFilter(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	args := []any{}
	pos := 1
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, string(f.Kind))
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, string(f.Status))
		pos++
	}
	if f.WarehouseID != "" {
		query += fmt.Sprintf(" AND (warehouse_id = $%d OR target_warehouse_id = $%d)", pos, pos)
		args = append(args, f.WarehouseID)
		pos++
	}
	if f.CreatedBy != "" {
		query += fmt.Sprintf(" AND created_by = $%d", pos)
		args = append(args, f.CreatedBy)
		pos++
	}
	query += " ORDER BY created_at DESC, number DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	list := []*entity.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// ListItems líneas en el orden en que se registraron.
func (r *DocumentRepo) ListItems(ctx context.Context, documentID string) ([]entity.DocumentItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, document_id, product_id, quantity, unit_price, remark, system_qty, diff_qty
		FROM document_items WHERE document_id = $1 ORDER BY line_no`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document items: %w", err)
	}
	defer rows.Close()
	var items []entity.DocumentItem
	for rows.Next() {
		var (
			it    entity.DocumentItem
			price decimal.NullDecimal
		)
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.ProductID, &it.Quantity, &price,
			&it.Remark, &it.SystemQty, &it.DiffQty); err != nil {
			return nil, fmt.Errorf("scan document item: %w", err)
		}
		if price.Valid {
			p := price.Decimal
			it.UnitPrice = &p
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus actualiza estado y sellos condicionado al estado previo (compare-and-set).
func (r *DocumentRepo) UpdateStatus(ctx context.Context, d *entity.Document, from entity.DocumentStatus) (bool, error) {
	updatedAt := d.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE documents SET status = $3,
			approved_by = $4, approved_at = $5,
			executed_by = $6, executed_at = $7,
			confirmed_by = $8, confirmed_at = $9,
			updated_at = $10
		WHERE id = $1 AND status = $2`,
		d.ID, string(from), string(d.Status),
		nullable(d.ApprovedBy), d.ApprovedAt,
		nullable(d.ExecutedBy), d.ExecutedAt,
		nullable(d.ConfirmedBy), d.ConfirmedAt,
		updatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("update document status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
