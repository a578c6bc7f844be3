package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/id"
	"partsledger/internal/domain"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/infrastructure/storage/postgres"
)

const partsTable = "cat_parts"

var partColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"description", "category_id", "unit_cost", "min_quantity", "notes",
	"created_at", "updated_at",
}

// PartRepo implements part.Repository.
type PartRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ part.Repository = (*PartRepo)(nil)

// NewPartRepo creates the parts repository.
func NewPartRepo(txManager *postgres.TxManager) *PartRepo {
	return &PartRepo{txManager: txManager, builder: newBuilder()}
}

// Create implements part.Repository.
func (r *PartRepo) Create(ctx context.Context, p *part.Part) error {
	q := r.builder.Insert(partsTable).
		Columns(partColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version, p.Code, p.Name,
			p.Description, p.CategoryID, p.UnitCost, p.MinQuantity, p.Notes,
			p.CreatedAt, p.UpdatedAt,
		)
	return exec(ctx, r.txManager, q, "insert part")
}

// GetByID implements part.Repository.
func (r *PartRepo) GetByID(ctx context.Context, partID id.ID) (*part.Part, error) {
	var p part.Part
	q := r.builder.Select(partColumns...).From(partsTable).
		Where(squirrel.Eq{"id": partID}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &p, "part", partID); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByCode implements part.Repository.
func (r *PartRepo) GetByCode(ctx context.Context, code string) (*part.Part, error) {
	var p part.Part
	q := r.builder.Select(partColumns...).From(partsTable).
		Where(squirrel.Eq{"code": code, "deletion_mark": false}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &p, "part", code); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update implements part.Repository.
func (r *PartRepo) Update(ctx context.Context, p *part.Part) error {
	q := r.builder.Update(partsTable).
		Set("code", p.Code).
		Set("name", p.Name).
		Set("description", p.Description).
		Set("category_id", p.CategoryID).
		Set("unit_cost", p.UnitCost).
		Set("min_quantity", p.MinQuantity).
		Set("notes", p.Notes).
		Set("updated_at", p.UpdatedAt).
		Set("version", p.Version).
		Where(squirrel.Eq{"id": p.ID})
	return execOne(ctx, r.txManager, q, "part", p.ID)
}

// SetDeletionMark implements part.Repository.
func (r *PartRepo) SetDeletionMark(ctx context.Context, partID id.ID, mark bool) error {
	return setDeletionMark(ctx, r.txManager, partsTable, "part", partID, mark)
}

// List implements part.Repository.
func (r *PartRepo) List(ctx context.Context, filter domain.ListFilter) ([]*part.Part, error) {
	q := r.builder.Select(partColumns...).From(partsTable)
	q = applyListFilter(q, filter, map[string]bool{"code": true, "name": true, "created_at": true})

	var parts []*part.Part
	if err := selectMany(ctx, r.txManager, q, &parts, "parts"); err != nil {
		return nil, err
	}
	return parts, nil
}

// Count implements part.Repository.
func (r *PartRepo) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return countRows(ctx, r.txManager, partsTable, filter)
}

// Search implements part.Repository with a trigram-style ILIKE match across
// number and description.
func (r *PartRepo) Search(ctx context.Context, query string) ([]*part.Part, error) {
	pattern := "%" + query + "%"
	q := r.builder.Select(partColumns...).From(partsTable).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"description": pattern},
			squirrel.ILike{"name": pattern},
		}).
		OrderBy("code")

	var parts []*part.Part
	if err := selectMany(ctx, r.txManager, q, &parts, "parts"); err != nil {
		return nil, err
	}
	return parts, nil
}

// ListByCategory implements part.Repository.
func (r *PartRepo) ListByCategory(ctx context.Context, categoryID id.ID) ([]*part.Part, error) {
	q := r.builder.Select(partColumns...).From(partsTable).
		Where(squirrel.Eq{"category_id": categoryID, "deletion_mark": false}).
		OrderBy("code")

	var parts []*part.Part
	if err := selectMany(ctx, r.txManager, q, &parts, "parts"); err != nil {
		return nil, err
	}
	return parts, nil
}

// ListLowStock implements part.Repository: parts whose warehouse balance sits
// below their threshold, most depleted first. Parts with no balance row count
// as zero in stock.
func (r *PartRepo) ListLowStock(ctx context.Context) ([]part.LowStockRow, error) {
	q := r.builder.Select(
		"p.id AS part_id",
		"p.code AS number",
		"p.description",
		"p.min_quantity",
		"COALESCE(s.quantity, 0) AS in_stock",
		"p.unit_cost",
	).
		From(partsTable+" p").
		LeftJoin("ledger_stock s ON s.part_id = p.id AND s.location_kind = ? AND s.location_ref = ?",
			ledger.LocationWarehouse, id.Nil()).
		Where(squirrel.Eq{"p.deletion_mark": false}).
		Where(squirrel.Gt{"p.min_quantity": int64(0)}).
		Where("COALESCE(s.quantity, 0) < p.min_quantity").
		OrderBy("(p.min_quantity - COALESCE(s.quantity, 0)) DESC")

	var rows []part.LowStockRow
	if err := selectMany(ctx, r.txManager, q, &rows, "low stock"); err != nil {
		return nil, err
	}
	return rows, nil
}
