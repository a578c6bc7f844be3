package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/id"
	"partsledger/internal/domain"
	"partsledger/internal/domain/partslist"
	"partsledger/internal/infrastructure/storage/postgres"
)

const (
	partsListsTable     = "parts_lists"
	partsListItemsTable = "parts_list_items"
)

var partsListColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"job_id", "notes", "created_at", "updated_at",
}

// PartsListRepo implements partslist.Repository.
type PartsListRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ partslist.Repository = (*PartsListRepo)(nil)

// NewPartsListRepo creates the parts list repository.
func NewPartsListRepo(txManager *postgres.TxManager) *PartsListRepo {
	return &PartsListRepo{txManager: txManager, builder: newBuilder()}
}

// Create implements partslist.Repository.
func (r *PartsListRepo) Create(ctx context.Context, l *partslist.List) error {
	q := r.builder.Insert(partsListsTable).
		Columns(partsListColumns...).
		Values(
			l.ID, l.DeletionMark, l.Version, l.Code, l.Name,
			l.JobID, l.Notes, l.CreatedAt, l.UpdatedAt,
		)
	return exec(ctx, r.txManager, q, "insert parts list")
}

// GetByID implements partslist.Repository.
func (r *PartsListRepo) GetByID(ctx context.Context, listID id.ID) (*partslist.List, error) {
	var l partslist.List
	q := r.builder.Select(partsListColumns...).From(partsListsTable).
		Where(squirrel.Eq{"id": listID}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &l, "parts list", listID); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByCode implements partslist.Repository.
func (r *PartsListRepo) GetByCode(ctx context.Context, code string) (*partslist.List, error) {
	var l partslist.List
	q := r.builder.Select(partsListColumns...).From(partsListsTable).
		Where(squirrel.Eq{"code": code, "deletion_mark": false}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &l, "parts list", code); err != nil {
		return nil, err
	}
	return &l, nil
}

// Update implements partslist.Repository.
func (r *PartsListRepo) Update(ctx context.Context, l *partslist.List) error {
	q := r.builder.Update(partsListsTable).
		Set("code", l.Code).
		Set("name", l.Name).
		Set("job_id", l.JobID).
		Set("notes", l.Notes).
		Set("updated_at", l.UpdatedAt).
		Set("version", l.Version).
		Where(squirrel.Eq{"id": l.ID})
	return execOne(ctx, r.txManager, q, "parts list", l.ID)
}

// SetDeletionMark implements partslist.Repository.
func (r *PartsListRepo) SetDeletionMark(ctx context.Context, listID id.ID, mark bool) error {
	return setDeletionMark(ctx, r.txManager, partsListsTable, "parts list", listID, mark)
}

// List implements partslist.Repository.
func (r *PartsListRepo) List(ctx context.Context, filter domain.ListFilter) ([]*partslist.List, error) {
	q := r.builder.Select(partsListColumns...).From(partsListsTable)
	q = applyListFilter(q, filter, map[string]bool{"code": true, "name": true, "created_at": true})

	var lists []*partslist.List
	if err := selectMany(ctx, r.txManager, q, &lists, "parts lists"); err != nil {
		return nil, err
	}
	return lists, nil
}

// Count implements partslist.Repository.
func (r *PartsListRepo) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return countRows(ctx, r.txManager, partsListsTable, filter)
}

// UpsertItem implements partslist.Repository: one row per (list, part), the
// latest required quantity wins.
func (r *PartsListRepo) UpsertItem(ctx context.Context, item *partslist.Item) error {
	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO parts_list_items (id, list_id, part_id, required_quantity, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (list_id, part_id) DO UPDATE SET
			required_quantity = $4,
			notes = $5
	`, item.ID, item.ListID, item.PartID, item.RequiredQuantity, item.Notes)
	if err != nil {
		return err
	}
	return nil
}

// RemoveItem implements partslist.Repository.
func (r *PartsListRepo) RemoveItem(ctx context.Context, itemID id.ID) error {
	q := r.builder.Delete(partsListItemsTable).Where(squirrel.Eq{"id": itemID})
	return execOne(ctx, r.txManager, q, "parts list item", itemID)
}

// ListItems implements partslist.Repository.
func (r *PartsListRepo) ListItems(ctx context.Context, listID id.ID) ([]partslist.Item, error) {
	q := r.builder.Select(
		"id", "list_id", "part_id", "required_quantity", "notes",
	).From(partsListItemsTable).
		Where(squirrel.Eq{"list_id": listID}).
		OrderBy("part_id")

	var items []partslist.Item
	if err := selectMany(ctx, r.txManager, q, &items, "parts list items"); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByJob implements partslist.Repository.
func (r *PartsListRepo) ListByJob(ctx context.Context, jobID id.ID) ([]*partslist.List, error) {
	q := r.builder.Select(partsListColumns...).From(partsListsTable).
		Where(squirrel.Eq{"job_id": jobID, "deletion_mark": false}).
		OrderBy("name")

	var lists []*partslist.List
	if err := selectMany(ctx, r.txManager, q, &lists, "parts lists"); err != nil {
		return nil, err
	}
	return lists, nil
}
