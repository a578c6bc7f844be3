package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/id"
	"partsledger/internal/domain"
	"partsledger/internal/domain/catalogs/truck"
	"partsledger/internal/infrastructure/storage/postgres"
)

const trucksTable = "cat_trucks"

var truckColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"assigned_to", "is_active", "notes",
	"created_at", "updated_at",
}

// TruckRepo implements truck.Repository.
type TruckRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ truck.Repository = (*TruckRepo)(nil)

// NewTruckRepo creates the trucks repository.
func NewTruckRepo(txManager *postgres.TxManager) *TruckRepo {
	return &TruckRepo{txManager: txManager, builder: newBuilder()}
}

// Create implements truck.Repository.
func (r *TruckRepo) Create(ctx context.Context, t *truck.Truck) error {
	q := r.builder.Insert(trucksTable).
		Columns(truckColumns...).
		Values(
			t.ID, t.DeletionMark, t.Version, t.Code, t.Name,
			t.AssignedTo, t.IsActive, t.Notes,
			t.CreatedAt, t.UpdatedAt,
		)
	return exec(ctx, r.txManager, q, "insert truck")
}

// GetByID implements truck.Repository.
func (r *TruckRepo) GetByID(ctx context.Context, truckID id.ID) (*truck.Truck, error) {
	var t truck.Truck
	q := r.builder.Select(truckColumns...).From(trucksTable).
		Where(squirrel.Eq{"id": truckID}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &t, "truck", truckID); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByCode implements truck.Repository.
func (r *TruckRepo) GetByCode(ctx context.Context, code string) (*truck.Truck, error) {
	var t truck.Truck
	q := r.builder.Select(truckColumns...).From(trucksTable).
		Where(squirrel.Eq{"code": code, "deletion_mark": false}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &t, "truck", code); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update implements truck.Repository.
func (r *TruckRepo) Update(ctx context.Context, t *truck.Truck) error {
	q := r.builder.Update(trucksTable).
		Set("code", t.Code).
		Set("name", t.Name).
		Set("assigned_to", t.AssignedTo).
		Set("is_active", t.IsActive).
		Set("notes", t.Notes).
		Set("updated_at", t.UpdatedAt).
		Set("version", t.Version).
		Where(squirrel.Eq{"id": t.ID})
	return execOne(ctx, r.txManager, q, "truck", t.ID)
}

// SetDeletionMark implements truck.Repository.
func (r *TruckRepo) SetDeletionMark(ctx context.Context, truckID id.ID, mark bool) error {
	return setDeletionMark(ctx, r.txManager, trucksTable, "truck", truckID, mark)
}

// List implements truck.Repository.
func (r *TruckRepo) List(ctx context.Context, filter domain.ListFilter) ([]*truck.Truck, error) {
	q := r.builder.Select(truckColumns...).From(trucksTable)
	q = applyListFilter(q, filter, map[string]bool{"code": true, "name": true, "created_at": true})

	var trucks []*truck.Truck
	if err := selectMany(ctx, r.txManager, q, &trucks, "trucks"); err != nil {
		return nil, err
	}
	return trucks, nil
}

// Count implements truck.Repository.
func (r *TruckRepo) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return countRows(ctx, r.txManager, trucksTable, filter)
}

// ListActive implements truck.Repository.
func (r *TruckRepo) ListActive(ctx context.Context) ([]*truck.Truck, error) {
	q := r.builder.Select(truckColumns...).From(trucksTable).
		Where(squirrel.Eq{"is_active": true, "deletion_mark": false}).
		OrderBy("code")

	var trucks []*truck.Truck
	if err := selectMany(ctx, r.txManager, q, &trucks, "active trucks"); err != nil {
		return nil, err
	}
	return trucks, nil
}
