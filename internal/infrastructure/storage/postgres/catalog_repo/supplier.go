package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"partsledger/internal/core/id"
	"partsledger/internal/domain"
	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/infrastructure/storage/postgres"
)

const suppliersTable = "cat_suppliers"

var supplierColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"contact_name", "phone", "email", "address",
	"is_supply_house", "operating_hours", "notes",
	"created_at", "updated_at",
}

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ supplier.Repository = (*SupplierRepo)(nil)

// NewSupplierRepo creates the suppliers repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{txManager: txManager, builder: newBuilder()}
}

// Create implements supplier.Repository.
func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder.Insert(suppliersTable).
		Columns(supplierColumns...).
		Values(
			s.ID, s.DeletionMark, s.Version, s.Code, s.Name,
			s.ContactName, s.Phone, s.Email, s.Address,
			s.IsSupplyHouse, s.OperatingHours, s.Notes,
			s.CreatedAt, s.UpdatedAt,
		)
	return exec(ctx, r.txManager, q, "insert supplier")
}

// GetByID implements supplier.Repository.
func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	var s supplier.Supplier
	q := r.builder.Select(supplierColumns...).From(suppliersTable).
		Where(squirrel.Eq{"id": supplierID}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &s, "supplier", supplierID); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByCode implements supplier.Repository.
func (r *SupplierRepo) GetByCode(ctx context.Context, code string) (*supplier.Supplier, error) {
	var s supplier.Supplier
	q := r.builder.Select(supplierColumns...).From(suppliersTable).
		Where(squirrel.Eq{"code": code, "deletion_mark": false}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &s, "supplier", code); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update implements supplier.Repository.
func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	q := r.builder.Update(suppliersTable).
		Set("code", s.Code).
		Set("name", s.Name).
		Set("contact_name", s.ContactName).
		Set("phone", s.Phone).
		Set("email", s.Email).
		Set("address", s.Address).
		Set("is_supply_house", s.IsSupplyHouse).
		Set("operating_hours", s.OperatingHours).
		Set("notes", s.Notes).
		Set("updated_at", s.UpdatedAt).
		Set("version", s.Version).
		Where(squirrel.Eq{"id": s.ID})
	return execOne(ctx, r.txManager, q, "supplier", s.ID)
}

// SetDeletionMark implements supplier.Repository.
func (r *SupplierRepo) SetDeletionMark(ctx context.Context, supplierID id.ID, mark bool) error {
	return setDeletionMark(ctx, r.txManager, suppliersTable, "supplier", supplierID, mark)
}

// List implements supplier.Repository.
func (r *SupplierRepo) List(ctx context.Context, filter domain.ListFilter) ([]*supplier.Supplier, error) {
	q := r.builder.Select(supplierColumns...).From(suppliersTable)
	q = applyListFilter(q, filter, map[string]bool{"code": true, "name": true, "created_at": true})

	var suppliers []*supplier.Supplier
	if err := selectMany(ctx, r.txManager, q, &suppliers, "suppliers"); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Count implements supplier.Repository.
func (r *SupplierRepo) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return countRows(ctx, r.txManager, suppliersTable, filter)
}

// ListSupplyHouses implements supplier.Repository.
func (r *SupplierRepo) ListSupplyHouses(ctx context.Context) ([]*supplier.Supplier, error) {
	q := r.builder.Select(supplierColumns...).From(suppliersTable).
		Where(squirrel.Eq{"is_supply_house": true, "deletion_mark": false}).
		OrderBy("name")

	var suppliers []*supplier.Supplier
	if err := selectMany(ctx, r.txManager, q, &suppliers, "supply houses"); err != nil {
		return nil, err
	}
	return suppliers, nil
}
