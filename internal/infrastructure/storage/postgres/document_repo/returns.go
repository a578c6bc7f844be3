package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/documents/returns"
	"partsledger/internal/infrastructure/storage/postgres"
)

const (
	returnsTable     = "doc_returns"
	returnItemsTable = "doc_return_items"
)

var returnColumns = []string{
	"id", "deletion_mark", "version", "number", "supplier_id", "reason",
	"related_order_id", "status", "credit_amount",
	"picked_up_at", "credit_received_at", "notes",
	"created_at", "updated_at", "created_by",
}

// ReturnRepo implements returns.Repository.
type ReturnRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ returns.Repository = (*ReturnRepo)(nil)

// NewReturnRepo creates the returns repository.
func NewReturnRepo(txManager *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create implements returns.Repository.
func (r *ReturnRepo) Create(ctx context.Context, a *returns.Authorization) error {
	q := r.builder.Insert(returnsTable).
		Columns(returnColumns...).
		Values(
			a.ID, a.DeletionMark, a.Version, a.Number, a.SupplierID, a.Reason,
			a.RelatedOrderID, a.Status, a.CreditAmount,
			a.PickedUpAt, a.CreditReceivedAt, a.Notes,
			a.CreatedAt, a.UpdatedAt, a.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	return nil
}

// GetByID implements returns.Repository.
func (r *ReturnRepo) GetByID(ctx context.Context, returnID id.ID) (*returns.Authorization, error) {
	return r.getReturn(ctx, squirrel.Eq{"id": returnID}, returnID, false)
}

// GetByIDForUpdate implements returns.Repository.
func (r *ReturnRepo) GetByIDForUpdate(ctx context.Context, returnID id.ID) (*returns.Authorization, error) {
	return r.getReturn(ctx, squirrel.Eq{"id": returnID}, returnID, true)
}

// GetByNumber implements returns.Repository.
func (r *ReturnRepo) GetByNumber(ctx context.Context, number string) (*returns.Authorization, error) {
	return r.getReturn(ctx, squirrel.Eq{"number": number}, number, false)
}

func (r *ReturnRepo) getReturn(ctx context.Context, where squirrel.Eq, key any, lock bool) (*returns.Authorization, error) {
	q := r.builder.Select(returnColumns...).From(returnsTable).Where(where).Limit(1)
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a returns.Authorization
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("return", key)
		}
		return nil, fmt.Errorf("get return: %w", err)
	}
	return &a, nil
}

// Update implements returns.Repository.
func (r *ReturnRepo) Update(ctx context.Context, a *returns.Authorization) error {
	q := r.builder.Update(returnsTable).
		Set("status", a.Status).
		Set("credit_amount", a.CreditAmount).
		Set("picked_up_at", a.PickedUpAt).
		Set("credit_received_at", a.CreditReceivedAt).
		Set("notes", a.Notes).
		Set("updated_at", a.UpdatedAt).
		Set("version", a.Version).
		Where(squirrel.Eq{"id": a.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update return: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("return", a.ID)
	}
	return nil
}

// Delete implements returns.Repository. Items cascade via the foreign key.
func (r *ReturnRepo) Delete(ctx context.Context, returnID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, "DELETE FROM doc_returns WHERE id = $1", returnID)
	if err != nil {
		return fmt.Errorf("delete return: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("return", returnID)
	}
	return nil
}

// List implements returns.Repository.
func (r *ReturnRepo) List(ctx context.Context, filter returns.ListFilter) ([]returns.Authorization, error) {
	q := r.builder.Select(returnColumns...).From(returnsTable).
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	q = q.OrderBy("created_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	q = q.Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []returns.Authorization
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select returns: %w", err)
	}
	return list, nil
}

// AddItem implements returns.Repository.
func (r *ReturnRepo) AddItem(ctx context.Context, item *returns.Item) error {
	q := r.builder.Insert(returnItemsTable).
		Columns("id", "return_id", "part_id", "quantity", "unit_cost", "reason").
		Values(item.ID, item.ReturnID, item.PartID, item.Quantity, item.UnitCost, item.Reason)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return item: %w", err)
	}
	return nil
}

// ListItems implements returns.Repository.
func (r *ReturnRepo) ListItems(ctx context.Context, returnID id.ID) ([]returns.Item, error) {
	q := r.builder.Select("id", "return_id", "part_id", "quantity", "unit_cost", "reason").
		From(returnItemsTable).
		Where(squirrel.Eq{"return_id": returnID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []returns.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select return items: %w", err)
	}
	return items, nil
}
