// Package document_repo implements the document storage contracts: purchase
// orders and return authorizations with their items.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/documents/order"
	"partsledger/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderItemsTable = "doc_order_items"
)

var orderColumns = []string{
	"id", "deletion_mark", "version", "number", "supplier_id", "status",
	"submitted_at", "expected_at", "notes",
	"created_at", "updated_at", "created_by",
}

var orderItemColumns = []string{
	"id", "order_id", "part_id",
	"quantity_ordered", "quantity_received", "unit_cost", "notes",
}

// OrderRepo implements order.Repository.
type OrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates the orders repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create implements order.Repository.
func (r *OrderRepo) Create(ctx context.Context, o *order.PurchaseOrder) error {
	q := r.builder.Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			o.ID, o.DeletionMark, o.Version, o.Number, o.SupplierID, o.Status,
			o.SubmittedAt, o.ExpectedAt, o.Notes,
			o.CreatedAt, o.UpdatedAt, o.CreatedBy,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID implements order.Repository.
func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*order.PurchaseOrder, error) {
	return r.getOrder(ctx, squirrel.Eq{"id": orderID}, orderID, false)
}

// GetByIDForUpdate implements order.Repository.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*order.PurchaseOrder, error) {
	return r.getOrder(ctx, squirrel.Eq{"id": orderID}, orderID, true)
}

// GetByNumber implements order.Repository.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*order.PurchaseOrder, error) {
	return r.getOrder(ctx, squirrel.Eq{"number": number}, number, false)
}

func (r *OrderRepo) getOrder(ctx context.Context, where squirrel.Eq, key any, lock bool) (*order.PurchaseOrder, error) {
	q := r.builder.Select(orderColumns...).From(ordersTable).Where(where).Limit(1)
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o order.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", key)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// Update implements order.Repository.
func (r *OrderRepo) Update(ctx context.Context, o *order.PurchaseOrder) error {
	q := r.builder.Update(ordersTable).
		Set("status", o.Status).
		Set("submitted_at", o.SubmittedAt).
		Set("expected_at", o.ExpectedAt).
		Set("notes", o.Notes).
		Set("updated_at", o.UpdatedAt).
		Set("version", o.Version).
		Where(squirrel.Eq{"id": o.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order", o.ID)
	}
	return nil
}

// Delete implements order.Repository. Items cascade via the foreign key.
func (r *OrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, "DELETE FROM doc_orders WHERE id = $1", orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order", orderID)
	}
	return nil
}

// List implements order.Repository.
func (r *OrderRepo) List(ctx context.Context, filter order.ListFilter) ([]order.PurchaseOrder, error) {
	q := r.builder.Select(orderColumns...).From(ordersTable).
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

	var orders []order.PurchaseOrder
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}

// AddItem implements order.Repository.
func (r *OrderRepo) AddItem(ctx context.Context, item *order.Item) error {
	q := r.builder.Insert(orderItemsTable).
		Columns(orderItemColumns...).
		Values(
			item.ID, item.OrderID, item.PartID,
			item.QuantityOrdered, item.QuantityReceived, item.UnitCost, item.Notes,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

// GetItem implements order.Repository.
func (r *OrderRepo) GetItem(ctx context.Context, itemID id.ID) (*order.Item, error) {
	q := r.builder.Select(orderItemColumns...).From(orderItemsTable).
		Where(squirrel.Eq{"id": itemID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item order.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order item", itemID)
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}
	return &item, nil
}

// UpdateItem implements order.Repository.
func (r *OrderRepo) UpdateItem(ctx context.Context, item *order.Item) error {
	q := r.builder.Update(orderItemsTable).
		Set("part_id", item.PartID).
		Set("quantity_ordered", item.QuantityOrdered).
		Set("quantity_received", item.QuantityReceived).
		Set("unit_cost", item.UnitCost).
		Set("notes", item.Notes).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order item", item.ID)
	}
	return nil
}

// DeleteItem implements order.Repository.
func (r *OrderRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, "DELETE FROM doc_order_items WHERE id = $1", itemID)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("order item", itemID)
	}
	return nil
}

// ListItems implements order.Repository.
func (r *OrderRepo) ListItems(ctx context.Context, orderID id.ID) ([]order.Item, error) {
	q := r.builder.Select(orderItemColumns...).From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []order.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	return items, nil
}
