package job

import (
	"context"
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain"
	"partsledger/pkg/numerator"
)

// Repository extends the generic catalog contract.
type Repository interface {
	domain.CatalogRepository[*Job]

	// ListByStatus returns jobs in one lifecycle state, newest first.
	ListByStatus(ctx context.Context, status Status) ([]*Job, error)
}

// Allocation is one increment of part usage on a job. Supplier and cost are
// recorded only when the pair is first assigned.
type Allocation struct {
	JobID         id.ID
	PartID        id.ID
	Quantity      types.Quantity
	UnitCost      types.Money
	SupplierID    *id.ID
	SourceOrderID *id.ID
}

// PartRepository is the storage contract for the job-part aggregate.
// Write methods expect a caller-opened transaction.
type PartRepository interface {
	// Get returns the aggregate row for (job, part), nil when absent.
	Get(ctx context.Context, jobID, partID id.ID) (*JobPart, error)

	// Allocate accumulates usage: inserts the row with the supplier and
	// cost snapshot, or adds to QuantityUsed of an existing row, filling
	// a nil supplier binding if the allocation carries one.
	Allocate(ctx context.Context, alloc Allocation) error

	// Reduce removes usage from the aggregate, deleting the row when it
	// reaches zero. Used when a consumption is reversed.
	Reduce(ctx context.Context, jobID, partID id.ID, qty types.Quantity) error

	// ListByJob returns the job's aggregate rows joined with part identity.
	ListByJob(ctx context.Context, jobID id.ID) ([]JobPartView, error)

	// TotalCost sums quantity times snapshotted cost over the job.
	TotalCost(ctx context.Context, jobID id.ID) (types.Money, error)

	// GetJobPartSupplier returns the supplier bound to (job, part), nil
	// when no row or no binding exists.
	GetJobPartSupplier(ctx context.Context, jobID, partID id.ID) (*id.ID, error)
}

// Service is the jobs catalog service.
type Service struct {
	*domain.CatalogService[*Job]

	repo      Repository
	parts     PartRepository
	txManager tx.Manager
	numbers   numerator.Generator
}

// NewService wires the jobs service. Job numbers are assigned on create when
// the caller left Code empty.
func NewService(repo Repository, parts PartRepository, txManager tx.Manager, numbers numerator.Generator) *Service {
	s := &Service{
		CatalogService: domain.NewCatalogService[*Job]("job", repo, txManager),
		repo:           repo,
		parts:          parts,
		txManager:      txManager,
		numbers:        numbers,
	}
	s.Hooks().BeforeSave(s.assignNumber)
	return s
}

func (s *Service) assignNumber(ctx context.Context, j *Job) error {
	if j.Code != "" {
		return nil
	}
	cfg := numerator.Config{
		Prefix:      "JOB",
		IncludeYear: true,
		PadWidth:    3,
		ResetPeriod: "year",
	}
	number, err := s.numbers.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), time.Now())
	if err != nil {
		return err
	}
	j.Code = number
	return nil
}

// ListByStatus returns jobs in one lifecycle state.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Job, error) {
	return s.repo.ListByStatus(ctx, status)
}

// Complete transitions a job to completed.
func (s *Service) Complete(ctx context.Context, jobID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		j, err := s.repo.GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		if err := j.Complete(); err != nil {
			return err
		}
		j.Touch()
		return s.repo.Update(ctx, j)
	})
}

// Cancel transitions a job to cancelled.
func (s *Service) Cancel(ctx context.Context, jobID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		j, err := s.repo.GetByID(ctx, jobID)
		if err != nil {
			return err
		}
		if err := j.Cancel(); err != nil {
			return err
		}
		j.Touch()
		return s.repo.Update(ctx, j)
	})
}

// ListParts returns the job's part usage with part identity joined in.
func (s *Service) ListParts(ctx context.Context, jobID id.ID) ([]JobPartView, error) {
	return s.parts.ListByJob(ctx, jobID)
}

// TotalCost returns the job's accumulated parts cost.
func (s *Service) TotalCost(ctx context.Context, jobID id.ID) (types.Money, error) {
	return s.parts.TotalCost(ctx, jobID)
}
