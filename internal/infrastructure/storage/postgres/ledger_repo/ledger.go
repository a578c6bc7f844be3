// Package ledger_repo implements the ledger storage contract on PostgreSQL:
// the balance table and the append-only movement table.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "ledger_movements"
	stockTable     = "ledger_stock"
)

var movementColumns = []string{
	"id", "kind", "status", "part_id", "quantity",
	"source_kind", "source_ref", "dest_kind", "dest_ref",
	"supplier_id", "source_order_id", "unit_cost",
	"recorder_type", "recorder_id",
	"occurred_at", "completed_at", "actor_id",
}

// Repo implements ledger.Repository.
type Repo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ ledger.Repository = (*Repo)(nil)

// New creates the ledger repository.
func New(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// locRef maps a location to the stored ref column. The balance table keys on
// (part, kind, ref) with the nil uuid standing in for "no ref", so the
// unique constraint and row locks behave.
func locRef(loc ledger.Location) id.ID {
	if loc.Kind == ledger.LocationTruck || loc.Kind == ledger.LocationJob {
		return loc.RefID
	}
	return id.Nil()
}

// GetStock implements ledger.Repository.
func (r *Repo) GetStock(ctx context.Context, partID id.ID, loc ledger.Location) (types.Quantity, error) {
	q := r.builder.Select("quantity").From(stockTable).
		Where(squirrel.Eq{
			"part_id":       partID,
			"location_kind": loc.Kind,
			"location_ref":  locRef(loc),
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var qty types.Quantity
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&qty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get stock: %w", err)
	}
	return qty, nil
}

// GetStockForUpdate implements ledger.Repository. Inserts a zero row when
// absent so there is always a row to lock.
func (r *Repo) GetStockForUpdate(ctx context.Context, partID id.ID, loc ledger.Location) (types.Quantity, error) {
	querier := r.txManager.GetQuerier(ctx)

	_, err := querier.Exec(ctx, `
		INSERT INTO ledger_stock (part_id, location_kind, location_ref, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (part_id, location_kind, location_ref) DO NOTHING
	`, partID, loc.Kind, locRef(loc))
	if err != nil {
		return 0, fmt.Errorf("ensure stock row: %w", err)
	}

	var qty types.Quantity
	err = querier.QueryRow(ctx, `
		SELECT quantity FROM ledger_stock
		WHERE part_id = $1 AND location_kind = $2 AND location_ref = $3
		FOR UPDATE
	`, partID, loc.Kind, locRef(loc)).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("lock stock row: %w", err)
	}
	return qty, nil
}

// Adjust implements ledger.Repository. The resulting balance is checked in
// the same statement; a negative result aborts the transaction with the
// internal invariant error.
func (r *Repo) Adjust(ctx context.Context, partID id.ID, loc ledger.Location, delta types.Quantity) (types.Quantity, error) {
	querier := r.txManager.GetQuerier(ctx)

	var result types.Quantity
	err := querier.QueryRow(ctx, `
		INSERT INTO ledger_stock (part_id, location_kind, location_ref, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (part_id, location_kind, location_ref)
		DO UPDATE SET quantity = ledger_stock.quantity + $4, updated_at = now()
		RETURNING quantity
	`, partID, loc.Kind, locRef(loc), delta).Scan(&result)
	if err != nil {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	if result.IsNegative() {
		return result, apperror.NewNegativeStock(partID.String(), loc.String(), result)
	}
	return result, nil
}

// ListStockByLocation implements ledger.Repository.
func (r *Repo) ListStockByLocation(ctx context.Context, loc ledger.Location) ([]ledger.LocationStock, error) {
	q := r.builder.Select(
		"part_id", "location_kind", "location_ref", "quantity", "updated_at",
	).From(stockTable).
		Where(squirrel.Eq{"location_kind": loc.Kind, "location_ref": locRef(loc)}).
		Where(squirrel.NotEq{"quantity": int64(0)}).
		OrderBy("part_id")

	return r.selectStock(ctx, q)
}

// ListStockByPart implements ledger.Repository.
func (r *Repo) ListStockByPart(ctx context.Context, partID id.ID) ([]ledger.LocationStock, error) {
	q := r.builder.Select(
		"part_id", "location_kind", "location_ref", "quantity", "updated_at",
	).From(stockTable).
		Where(squirrel.Eq{"part_id": partID}).
		Where(squirrel.NotEq{"quantity": int64(0)}).
		OrderBy("location_kind", "location_ref")

	return r.selectStock(ctx, q)
}

func (r *Repo) selectStock(ctx context.Context, q squirrel.SelectBuilder) ([]ledger.LocationStock, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []stockRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock: %w", err)
	}

	stocks := make([]ledger.LocationStock, len(rows))
	for i := range rows {
		stocks[i] = rows[i].toDomain()
	}
	return stocks, nil
}

// stockRow maps the balance table; the stored nil-uuid ref becomes a nil
// pointer on the way out.
type stockRow struct {
	PartID       id.ID               `db:"part_id"`
	LocationKind ledger.LocationKind `db:"location_kind"`
	LocationRef  id.ID               `db:"location_ref"`
	Quantity     types.Quantity      `db:"quantity"`
	UpdatedAt    time.Time           `db:"updated_at"`
}

func (sr stockRow) toDomain() ledger.LocationStock {
	s := ledger.LocationStock{
		PartID:       sr.PartID,
		LocationKind: sr.LocationKind,
		Quantity:     sr.Quantity,
		UpdatedAt:    sr.UpdatedAt,
	}
	if !id.IsNil(sr.LocationRef) {
		ref := sr.LocationRef
		s.LocationRef = &ref
	}
	return s
}

// Append implements ledger.Repository.
func (r *Repo) Append(ctx context.Context, rec *ledger.MovementRecord) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			rec.ID, rec.Kind, rec.Status, rec.PartID, rec.Quantity,
			rec.SourceKind, rec.SourceRef, rec.DestKind, rec.DestRef,
			rec.SupplierID, rec.SourceOrderID, rec.UnitCost,
			rec.RecorderType, rec.RecorderID,
			rec.OccurredAt, rec.CompletedAt, rec.ActorID,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetMovement implements ledger.Repository.
func (r *Repo) GetMovement(ctx context.Context, movementID id.ID) (*ledger.MovementRecord, error) {
	return r.getMovement(ctx, movementID, false)
}

// GetMovementForUpdate implements ledger.Repository.
func (r *Repo) GetMovementForUpdate(ctx context.Context, movementID id.ID) (*ledger.MovementRecord, error) {
	return r.getMovement(ctx, movementID, true)
}

func (r *Repo) getMovement(ctx context.Context, movementID id.ID, lock bool) (*ledger.MovementRecord, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable).
		Where(squirrel.Eq{"id": movementID}).Limit(1)
	if lock {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec ledger.MovementRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID)
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &rec, nil
}

// SetTransferStatus implements ledger.Repository.
func (r *Repo) SetTransferStatus(ctx context.Context, movementID id.ID, status ledger.TransferStatus, completedAt *time.Time) error {
	q := r.builder.Update(movementsTable).
		Set("status", status).
		Set("completed_at", completedAt).
		Where(squirrel.Eq{"id": movementID, "kind": ledger.KindTransfer})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("transfer", movementID)
	}
	return nil
}

// ListTransfers implements ledger.Repository.
func (r *Repo) ListTransfers(ctx context.Context, truckID *id.ID, status *ledger.TransferStatus) ([]ledger.MovementRecord, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable).
		Where(squirrel.Eq{"kind": ledger.KindTransfer})

	if truckID != nil {
		q = q.Where(squirrel.Eq{"dest_kind": ledger.LocationTruck, "dest_ref": *truckID})
	}
	if status != nil {
		q = q.Where(squirrel.Eq{"status": *status})
	}
	q = q.OrderBy("occurred_at DESC", "id DESC")

	return r.selectMovements(ctx, q)
}

// ListByRecorder implements ledger.Repository.
func (r *Repo) ListByRecorder(ctx context.Context, recorderType string, recorderID id.ID) ([]ledger.MovementRecord, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable).
		Where(squirrel.Eq{"recorder_type": recorderType, "recorder_id": recorderID}).
		OrderBy("occurred_at", "id")

	return r.selectMovements(ctx, q)
}

// DeleteByRecorder implements ledger.Repository.
func (r *Repo) DeleteByRecorder(ctx context.Context, recorderType string, recorderID id.ID) (int64, error) {
	q := r.builder.Delete(movementsTable).
		Where(squirrel.Eq{"recorder_type": recorderType, "recorder_id": recorderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete movements: %w", err)
	}
	return tag.RowsAffected(), nil
}

// History implements ledger.Repository.
func (r *Repo) History(ctx context.Context, filter ledger.HistoryFilter) ([]ledger.MovementRecord, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable)

	if filter.PartID != nil {
		q = q.Where(squirrel.Eq{"part_id": *filter.PartID})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.Location != nil {
		loc := *filter.Location
		q = q.Where(squirrel.Or{
			squirrel.Eq{"source_kind": loc.Kind, "source_ref": refOrNil(loc)},
			squirrel.Eq{"dest_kind": loc.Kind, "dest_ref": refOrNil(loc)},
		})
	}
	if filter.Since != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *filter.Since})
	}

	q = q.OrderBy("occurred_at", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	return r.selectMovements(ctx, q)
}

// refOrNil renders a location ref for movement columns, which store NULL
// for warehouse and external endpoints.
func refOrNil(loc ledger.Location) any {
	if loc.Kind == ledger.LocationTruck || loc.Kind == ledger.LocationJob {
		return loc.RefID
	}
	return nil
}

func (r *Repo) selectMovements(ctx context.Context, q squirrel.SelectBuilder) ([]ledger.MovementRecord, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recs []ledger.MovementRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &recs, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return recs, nil
}

// LatestReceive implements ledger.Repository. Occurred-at descending with id
// as the tie-break: ids are time-ordered, so the highest id is the latest
// created row.
func (r *Repo) LatestReceive(ctx context.Context, partID id.ID) (*ledger.SupplierAttribution, error) {
	querier := r.txManager.GetQuerier(ctx)

	var attr ledger.SupplierAttribution
	err := querier.QueryRow(ctx, `
		SELECT supplier_id, source_order_id
		FROM ledger_movements
		WHERE part_id = $1 AND kind = $2
		ORDER BY occurred_at DESC, id DESC
		LIMIT 1
	`, partID, ledger.KindReceive).Scan(&attr.SupplierID, &attr.SourceOrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest receive: %w", err)
	}
	return &attr, nil
}

// LatestReceivedTransfer implements ledger.Repository.
func (r *Repo) LatestReceivedTransfer(ctx context.Context, partID, truckID id.ID) (*ledger.MovementRecord, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable).
		Where(squirrel.Eq{
			"part_id":   partID,
			"kind":      ledger.KindTransfer,
			"status":    ledger.TransferCompleted,
			"dest_kind": ledger.LocationTruck,
			"dest_ref":  truckID,
		}).
		OrderBy("completed_at DESC", "id DESC").
		Limit(1)

	return r.firstMovement(ctx, q)
}

// LatestJobConsumption implements ledger.Repository.
func (r *Repo) LatestJobConsumption(ctx context.Context, partID, jobID id.ID) (*ledger.MovementRecord, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable).
		Where(squirrel.Eq{
			"part_id":   partID,
			"kind":      ledger.KindConsumption,
			"dest_kind": ledger.LocationJob,
			"dest_ref":  jobID,
		}).
		OrderBy("occurred_at DESC", "id DESC").
		Limit(1)

	return r.firstMovement(ctx, q)
}

func (r *Repo) firstMovement(ctx context.Context, q squirrel.SelectBuilder) (*ledger.MovementRecord, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec ledger.MovementRecord
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select movement: %w", err)
	}
	return &rec, nil
}
