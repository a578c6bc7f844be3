package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/infrastructure/storage/postgres"
)

const (
	jobsTable     = "cat_jobs"
	jobPartsTable = "job_parts"
)

var jobColumns = []string{
	"id", "deletion_mark", "version", "code", "name",
	"customer", "address", "status", "notes",
	"created_at", "updated_at", "completed_at",
}

// JobRepo implements job.Repository.
type JobRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ job.Repository = (*JobRepo)(nil)

// NewJobRepo creates the jobs repository.
func NewJobRepo(txManager *postgres.TxManager) *JobRepo {
	return &JobRepo{txManager: txManager, builder: newBuilder()}
}

// Create implements job.Repository.
func (r *JobRepo) Create(ctx context.Context, j *job.Job) error {
	q := r.builder.Insert(jobsTable).
		Columns(jobColumns...).
		Values(
			j.ID, j.DeletionMark, j.Version, j.Code, j.Name,
			j.Customer, j.Address, j.Status, j.Notes,
			j.CreatedAt, j.UpdatedAt, j.CompletedAt,
		)
	return exec(ctx, r.txManager, q, "insert job")
}

// GetByID implements job.Repository.
func (r *JobRepo) GetByID(ctx context.Context, jobID id.ID) (*job.Job, error) {
	var j job.Job
	q := r.builder.Select(jobColumns...).From(jobsTable).
		Where(squirrel.Eq{"id": jobID}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &j, "job", jobID); err != nil {
		return nil, err
	}
	return &j, nil
}

// GetByCode implements job.Repository.
func (r *JobRepo) GetByCode(ctx context.Context, code string) (*job.Job, error) {
	var j job.Job
	q := r.builder.Select(jobColumns...).From(jobsTable).
		Where(squirrel.Eq{"code": code, "deletion_mark": false}).Limit(1)
	if err := getOne(ctx, r.txManager, q, &j, "job", code); err != nil {
		return nil, err
	}
	return &j, nil
}

// Update implements job.Repository.
func (r *JobRepo) Update(ctx context.Context, j *job.Job) error {
	q := r.builder.Update(jobsTable).
		Set("code", j.Code).
		Set("name", j.Name).
		Set("customer", j.Customer).
		Set("address", j.Address).
		Set("status", j.Status).
		Set("notes", j.Notes).
		Set("updated_at", j.UpdatedAt).
		Set("completed_at", j.CompletedAt).
		Set("version", j.Version).
		Where(squirrel.Eq{"id": j.ID})
	return execOne(ctx, r.txManager, q, "job", j.ID)
}

// SetDeletionMark implements job.Repository.
func (r *JobRepo) SetDeletionMark(ctx context.Context, jobID id.ID, mark bool) error {
	return setDeletionMark(ctx, r.txManager, jobsTable, "job", jobID, mark)
}

// List implements job.Repository.
func (r *JobRepo) List(ctx context.Context, filter domain.ListFilter) ([]*job.Job, error) {
	q := r.builder.Select(jobColumns...).From(jobsTable)
	q = applyListFilter(q, filter, map[string]bool{"code": true, "name": true, "created_at": true})

	var jobs []*job.Job
	if err := selectMany(ctx, r.txManager, q, &jobs, "jobs"); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Count implements job.Repository.
func (r *JobRepo) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	return countRows(ctx, r.txManager, jobsTable, filter)
}

// ListByStatus implements job.Repository.
func (r *JobRepo) ListByStatus(ctx context.Context, status job.Status) ([]*job.Job, error) {
	q := r.builder.Select(jobColumns...).From(jobsTable).
		Where(squirrel.Eq{"status": status, "deletion_mark": false}).
		OrderBy("created_at DESC")

	var jobs []*job.Job
	if err := selectMany(ctx, r.txManager, q, &jobs, "jobs"); err != nil {
		return nil, err
	}
	return jobs, nil
}

// JobPartRepo implements job.PartRepository.
type JobPartRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ job.PartRepository = (*JobPartRepo)(nil)

// NewJobPartRepo creates the job-part aggregate repository.
func NewJobPartRepo(txManager *postgres.TxManager) *JobPartRepo {
	return &JobPartRepo{txManager: txManager, builder: newBuilder()}
}

// Get implements job.PartRepository.
func (r *JobPartRepo) Get(ctx context.Context, jobID, partID id.ID) (*job.JobPart, error) {
	q := r.builder.Select(
		"id", "job_id", "part_id", "quantity_used", "unit_cost",
		"supplier_id", "source_order_id", "notes", "assigned_at", "updated_at",
	).From(jobPartsTable).
		Where(squirrel.Eq{"job_id": jobID, "part_id": partID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var jp job.JobPart
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &jp, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job part: %w", err)
	}
	return &jp, nil
}

// Allocate implements job.PartRepository. The supplier binding and cost
// snapshot are written only when absent; repeated allocations accumulate
// quantity.
func (r *JobPartRepo) Allocate(ctx context.Context, alloc job.Allocation) error {
	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO job_parts
			(id, job_id, part_id, quantity_used, unit_cost,
			 supplier_id, source_order_id, assigned_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (job_id, part_id) DO UPDATE SET
			quantity_used   = job_parts.quantity_used + $4,
			supplier_id     = COALESCE(job_parts.supplier_id, $6),
			source_order_id = COALESCE(job_parts.source_order_id, $7),
			updated_at      = now()
	`, id.New(), alloc.JobID, alloc.PartID, alloc.Quantity, alloc.UnitCost,
		alloc.SupplierID, alloc.SourceOrderID)
	if err != nil {
		return fmt.Errorf("allocate job part: %w", err)
	}
	return nil
}

// Reduce implements job.PartRepository.
func (r *JobPartRepo) Reduce(ctx context.Context, jobID, partID id.ID, qty types.Quantity) error {
	querier := r.txManager.GetQuerier(ctx)

	_, err := querier.Exec(ctx, `
		UPDATE job_parts
		SET quantity_used = GREATEST(quantity_used - $3, 0), updated_at = now()
		WHERE job_id = $1 AND part_id = $2
	`, jobID, partID, qty)
	if err != nil {
		return fmt.Errorf("reduce job part: %w", err)
	}

	_, err = querier.Exec(ctx, `
		DELETE FROM job_parts
		WHERE job_id = $1 AND part_id = $2 AND quantity_used = 0
	`, jobID, partID)
	if err != nil {
		return fmt.Errorf("prune job part: %w", err)
	}
	return nil
}

// ListByJob implements job.PartRepository.
func (r *JobPartRepo) ListByJob(ctx context.Context, jobID id.ID) ([]job.JobPartView, error) {
	q := r.builder.Select(
		"jp.id", "jp.job_id", "jp.part_id", "jp.quantity_used", "jp.unit_cost",
		"jp.supplier_id", "jp.source_order_id", "jp.notes", "jp.assigned_at", "jp.updated_at",
		"p.code AS part_number",
		"p.description AS part_description",
		"COALESCE(s.name, '') AS supplier_name",
	).
		From(jobPartsTable+" jp").
		Join("cat_parts p ON p.id = jp.part_id").
		LeftJoin("cat_suppliers s ON s.id = jp.supplier_id").
		Where(squirrel.Eq{"jp.job_id": jobID}).
		OrderBy("jp.assigned_at DESC")

	var views []job.JobPartView
	if err := selectMany(ctx, r.txManager, q, &views, "job parts"); err != nil {
		return nil, err
	}
	return views, nil
}

// TotalCost implements job.PartRepository.
func (r *JobPartRepo) TotalCost(ctx context.Context, jobID id.ID) (types.Money, error) {
	querier := r.txManager.GetQuerier(ctx)

	var total types.Money
	err := querier.QueryRow(ctx, `
		SELECT COALESCE(SUM(unit_cost * (quantity_used::numeric / 10000)), 0)
		FROM job_parts
		WHERE job_id = $1
	`, jobID).Scan(&total)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return types.ZeroMoney(), fmt.Errorf("job total cost: %w", err)
	}
	return total, nil
}

// GetJobPartSupplier implements job.PartRepository and the lineage source
// contract.
func (r *JobPartRepo) GetJobPartSupplier(ctx context.Context, jobID, partID id.ID) (*id.ID, error) {
	querier := r.txManager.GetQuerier(ctx)

	var supplierID *id.ID
	err := querier.QueryRow(ctx, `
		SELECT supplier_id FROM job_parts
		WHERE job_id = $1 AND part_id = $2
	`, jobID, partID).Scan(&supplierID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job part supplier: %w", err)
	}
	return supplierID, nil
}
