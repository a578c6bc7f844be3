// Package catalog_repo implements the catalog storage contracts on
// PostgreSQL. One file per catalog; this file holds the shared listing
// helpers.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain"
	"partsledger/internal/infrastructure/storage/postgres"
)

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// applyListFilter adds the common catalog filter clauses: soft-delete
// visibility, code/name search, whitelisted ordering, pagination.
func applyListFilter(q squirrel.SelectBuilder, filter domain.ListFilter, orderable map[string]bool) squirrel.SelectBuilder {
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	orderBy := filter.OrderBy
	if orderBy == "" || !orderable[orderBy] {
		orderBy = "code"
	}
	if filter.Desc {
		orderBy += " DESC"
	}
	q = q.OrderBy(orderBy)

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	q = q.Limit(uint64(limit))
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// countRows runs a COUNT(*) with the filter's visibility and search clauses.
func countRows(ctx context.Context, txManager *postgres.TxManager, table string, filter domain.ListFilter) (int64, error) {
	q := newBuilder().Select("COUNT(*)").From(table)
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int64
	querier := txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// setDeletionMark flips the soft-delete flag and bumps the version.
func setDeletionMark(ctx context.Context, txManager *postgres.TxManager, table, entityName string, entID id.ID, mark bool) error {
	q := newBuilder().Update(table).
		Set("deletion_mark", mark).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, entID)
	}
	return nil
}

// getOne loads a single row into dst, mapping no-rows to NOT_FOUND.
func getOne(ctx context.Context, txManager *postgres.TxManager, q squirrel.SelectBuilder, dst any, entityName string, key any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	querier := txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(entityName, key)
		}
		return fmt.Errorf("get %s: %w", entityName, err)
	}
	return nil
}

// selectMany loads rows into dst (a pointer to a slice).
func selectMany(ctx context.Context, txManager *postgres.TxManager, q squirrel.SelectBuilder, dst any, entityName string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	querier := txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, dst, sql, args...); err != nil {
		return fmt.Errorf("select %s: %w", entityName, err)
	}
	return nil
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, txManager *postgres.TxManager, q squirrel.Sqlizer, entityName string, key any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}

	querier := txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("exec %s: %w", entityName, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entityName, key)
	}
	return nil
}

// exec runs a statement without a row-count requirement.
func exec(ctx context.Context, txManager *postgres.TxManager, q squirrel.Sqlizer, what string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}

	querier := txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
