// Package job is the jobs catalog and the job-part aggregate. The aggregate
// carries the supplier binding the lineage rule is enforced against.
package job

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/entity"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// Status is the job lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Job is a customer job site. Code holds the job number (JOB-2026-001).
type Job struct {
	entity.Catalog

	Customer string `db:"customer" json:"customer,omitempty"`
	Address  string `db:"address" json:"address,omitempty"`

	Status Status `db:"status" json:"status"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// New creates an active job with a generated id. The job number is assigned
// by the service at save time.
func New(name, customer string) *Job {
	now := time.Now().UTC()
	return &Job{
		Catalog:   entity.NewCatalog("", name),
		Customer:  customer,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements entity.Validatable.
func (j *Job) Validate(ctx context.Context) error {
	switch j.Status {
	case StatusActive, StatusCompleted, StatusCancelled:
	default:
		return apperror.NewValidation("unknown job status").
			WithDetail("status", string(j.Status))
	}
	return j.Catalog.Validate(ctx)
}

// Complete moves an active job to completed.
func (j *Job) Complete() error {
	if j.Status != StatusActive {
		return apperror.NewInvalidState("job", j.ID, string(j.Status), "complete")
	}
	now := time.Now().UTC()
	j.Status = StatusCompleted
	j.CompletedAt = &now
	return nil
}

// Cancel moves an active job to cancelled.
func (j *Job) Cancel() error {
	if j.Status != StatusActive {
		return apperror.NewInvalidState("job", j.ID, string(j.Status), "cancel")
	}
	j.Status = StatusCancelled
	return nil
}

// JobPart is the per-(job, part) usage aggregate. One row per pair; repeated
// allocations accumulate QuantityUsed. UnitCost and SupplierID are fixed at
// first assignment; the supplier binding is what the lineage rule protects.
type JobPart struct {
	ID     id.ID `db:"id" json:"id"`
	JobID  id.ID `db:"job_id" json:"jobId"`
	PartID id.ID `db:"part_id" json:"partId"`

	QuantityUsed types.Quantity `db:"quantity_used" json:"quantityUsed"`

	// UnitCost is snapshotted when the pair is first assigned; later list
	// price changes do not reprice used stock.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// SupplierID is the supplier every allocation of this pair must carry.
	// Nil for rows that predate lineage tracking.
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// SourceOrderID is the order that introduced the first allocation.
	SourceOrderID *id.ID `db:"source_order_id" json:"sourceOrderId,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	AssignedAt time.Time `db:"assigned_at" json:"assignedAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// TotalCost returns quantity times the snapshotted unit cost.
func (jp *JobPart) TotalCost() types.Money {
	return jp.UnitCost.Mul(jp.QuantityUsed.Decimal())
}

// JobPartView is the read-side projection for job cost listings: the
// aggregate joined with part identity for display.
type JobPartView struct {
	JobPart

	PartNumber      string `db:"part_number" json:"partNumber"`
	PartDescription string `db:"part_description" json:"partDescription"`
	SupplierName    string `db:"supplier_name" json:"supplierName,omitempty"`
}
