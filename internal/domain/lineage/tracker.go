// Package lineage enforces the one-supplier-per-part-per-job rule. Every
// movement that allocates stock to a job passes through the Tracker before
// the ledger is touched, inside the same transaction, so two concurrent
// movements cannot both pass the check against stale state.
package lineage

import (
	"context"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/ledger"
)

// JobSupplierSource reads the supplier recorded on the job-part aggregate.
// Implemented by the job catalog repository.
type JobSupplierSource interface {
	// GetJobPartSupplier returns the supplier bound to (job, part), or nil
	// when no assignment exists or the assignment carries no supplier.
	GetJobPartSupplier(ctx context.Context, jobID, partID id.ID) (*id.ID, error)
}

// MovementSource reads consumption history. Satisfied by *ledger.Store.
type MovementSource interface {
	LatestJobConsumption(ctx context.Context, partID, jobID id.ID) (*ledger.MovementRecord, error)
}

// Tracker resolves and validates supplier attribution for job allocations.
type Tracker struct {
	jobParts  JobSupplierSource
	movements MovementSource
}

// NewTracker wires the tracker.
func NewTracker(jobParts JobSupplierSource, movements MovementSource) *Tracker {
	return &Tracker{jobParts: jobParts, movements: movements}
}

// Existing returns the supplier already bound to (part, job): the aggregate
// row first, then the latest consumption movement. Nil when the pair has no
// supplier history.
func (t *Tracker) Existing(ctx context.Context, partID, jobID id.ID) (*id.ID, error) {
	supplier, err := t.jobParts.GetJobPartSupplier(ctx, jobID, partID)
	if err != nil {
		return nil, err
	}
	if supplier != nil {
		return supplier, nil
	}

	rec, err := t.movements.LatestJobConsumption(ctx, partID, jobID)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.SupplierID != nil {
		return rec.SupplierID, nil
	}
	return nil, nil
}

// Resolve validates a candidate supplier against the pair's history and
// returns the supplier to record on the movement.
//
// No history: any candidate is acceptable, including none. History with a
// nil candidate: the movement inherits the existing supplier. History with
// a different candidate: SUPPLIER_CONFLICT carrying both suppliers.
func (t *Tracker) Resolve(ctx context.Context, partID, jobID id.ID, candidate *id.ID) (*id.ID, error) {
	existing, err := t.Existing(ctx, partID, jobID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return candidate, nil
	}
	if candidate == nil {
		return existing, nil
	}
	if *existing != *candidate {
		return nil, apperror.NewSupplierConflict(
			partID.String(), jobID.String(),
			existing.String(), candidate.String(),
		)
	}
	return candidate, nil
}
