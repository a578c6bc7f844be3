// Package ledgertest provides an in-memory ledger repository and a
// pass-through transaction manager for service tests.
package ledgertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/ledger"
)

// TxManager satisfies tx.Manager and tx.ReadOnlyManager without a database.
type TxManager struct{}

// RunInTransaction runs fn directly.
func (TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly runs fn directly.
func (TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Repo is an in-memory ledger.Repository. Row locking degenerates to the
// repo mutex, which is enough for single-goroutine tests.
type Repo struct {
	mu        sync.Mutex
	stock     map[string]types.Quantity
	movements []*ledger.MovementRecord
}

var _ ledger.Repository = (*Repo)(nil)

// NewRepo creates an empty in-memory repository.
func NewRepo() *Repo {
	return &Repo{stock: make(map[string]types.Quantity)}
}

func stockKey(partID id.ID, loc ledger.Location) string {
	return partID.String() + "|" + loc.String()
}

// SetStock seeds a balance directly, bypassing movements.
func (r *Repo) SetStock(partID id.ID, loc ledger.Location, qty types.Quantity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[stockKey(partID, loc)] = qty
}

// GetStock implements ledger.Repository.
func (r *Repo) GetStock(ctx context.Context, partID id.ID, loc ledger.Location) (types.Quantity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stock[stockKey(partID, loc)], nil
}

// GetStockForUpdate implements ledger.Repository.
func (r *Repo) GetStockForUpdate(ctx context.Context, partID id.ID, loc ledger.Location) (types.Quantity, error) {
	return r.GetStock(ctx, partID, loc)
}

// Adjust implements ledger.Repository.
func (r *Repo) Adjust(ctx context.Context, partID id.ID, loc ledger.Location, delta types.Quantity) (types.Quantity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := stockKey(partID, loc)
	next := r.stock[key] + delta
	if next.IsNegative() {
		return 0, apperror.NewNegativeStock(partID.String(), loc.String(), next)
	}
	r.stock[key] = next
	return next, nil
}

// ListStockByLocation implements ledger.Repository.
func (r *Repo) ListStockByLocation(ctx context.Context, loc ledger.Location) ([]ledger.LocationStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.LocationStock
	suffix := "|" + loc.String()
	for key, qty := range r.stock {
		if qty.IsZero() || len(key) <= len(suffix) || key[len(key)-len(suffix):] != suffix {
			continue
		}
		partID, err := id.Parse(key[:36])
		if err != nil {
			return nil, err
		}
		row := ledger.LocationStock{PartID: partID, LocationKind: loc.Kind, Quantity: qty}
		if ref := loc.RefID; !id.IsNil(ref) {
			refCopy := ref
			row.LocationRef = &refCopy
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartID.String() < out[j].PartID.String() })
	return out, nil
}

// ListStockByPart implements ledger.Repository.
func (r *Repo) ListStockByPart(ctx context.Context, partID id.ID) ([]ledger.LocationStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.LocationStock
	prefix := partID.String() + "|"
	for key, qty := range r.stock {
		if qty.IsZero() || len(key) <= len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		locStr := key[len(prefix):]
		row := ledger.LocationStock{PartID: partID, Quantity: qty}
		switch {
		case locStr == "warehouse":
			row.LocationKind = ledger.LocationWarehouse
		case len(locStr) > 6 && locStr[:6] == "truck:":
			row.LocationKind = ledger.LocationTruck
			ref, err := id.Parse(locStr[6:])
			if err != nil {
				return nil, err
			}
			row.LocationRef = &ref
		case len(locStr) > 4 && locStr[:4] == "job:":
			row.LocationKind = ledger.LocationJob
			ref, err := id.Parse(locStr[4:])
			if err != nil {
				return nil, err
			}
			row.LocationRef = &ref
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationKind < out[j].LocationKind })
	return out, nil
}

// Append implements ledger.Repository.
func (r *Repo) Append(ctx context.Context, rec *ledger.MovementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.movements = append(r.movements, &cp)
	return nil
}

// GetMovement implements ledger.Repository.
func (r *Repo) GetMovement(ctx context.Context, movementID id.ID) (*ledger.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ID == movementID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("movement", movementID)
}

// GetMovementForUpdate implements ledger.Repository.
func (r *Repo) GetMovementForUpdate(ctx context.Context, movementID id.ID) (*ledger.MovementRecord, error) {
	return r.GetMovement(ctx, movementID)
}

// SetTransferStatus implements ledger.Repository.
func (r *Repo) SetTransferStatus(ctx context.Context, movementID id.ID, status ledger.TransferStatus, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ID == movementID {
			m.Status = status
			m.CompletedAt = completedAt
			return nil
		}
	}
	return apperror.NewNotFound("movement", movementID)
}

// ListTransfers implements ledger.Repository.
func (r *Repo) ListTransfers(ctx context.Context, truckID *id.ID, status *ledger.TransferStatus) ([]ledger.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.MovementRecord
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if m.Kind != ledger.KindTransfer {
			continue
		}
		if truckID != nil && (m.DestRef == nil || *m.DestRef != *truckID) {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

// ListByRecorder implements ledger.Repository.
func (r *Repo) ListByRecorder(ctx context.Context, recorderType string, recorderID id.ID) ([]ledger.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.MovementRecord
	for _, m := range r.movements {
		if m.RecorderType == recorderType && m.RecorderID == recorderID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// DeleteByRecorder implements ledger.Repository.
func (r *Repo) DeleteByRecorder(ctx context.Context, recorderType string, recorderID id.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*ledger.MovementRecord
	var deleted int64
	for _, m := range r.movements {
		if m.RecorderType == recorderType && m.RecorderID == recorderID {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.movements = kept
	return deleted, nil
}

// History implements ledger.Repository. Oldest first.
func (r *Repo) History(ctx context.Context, filter ledger.HistoryFilter) ([]ledger.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.MovementRecord
	for _, m := range r.movements {
		if filter.PartID != nil && m.PartID != *filter.PartID {
			continue
		}
		if filter.Kind != nil && m.Kind != *filter.Kind {
			continue
		}
		if filter.Location != nil {
			loc := *filter.Location
			if m.Source() != loc && m.Dest() != loc {
				continue
			}
		}
		if filter.Since != nil && m.OccurredAt.Before(*filter.Since) {
			continue
		}
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// LatestReceive implements ledger.Repository.
func (r *Repo) LatestReceive(ctx context.Context, partID id.ID) (*ledger.SupplierAttribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *ledger.MovementRecord
	for _, m := range r.movements {
		if m.Kind != ledger.KindReceive || m.PartID != partID {
			continue
		}
		if latest == nil || after(m, latest) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	return &ledger.SupplierAttribution{
		SupplierID:    latest.SupplierID,
		SourceOrderID: latest.SourceOrderID,
	}, nil
}

// LatestReceivedTransfer implements ledger.Repository.
func (r *Repo) LatestReceivedTransfer(ctx context.Context, partID, truckID id.ID) (*ledger.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *ledger.MovementRecord
	for _, m := range r.movements {
		if m.Kind != ledger.KindTransfer || m.Status != ledger.TransferCompleted {
			continue
		}
		if m.PartID != partID || m.DestRef == nil || *m.DestRef != truckID {
			continue
		}
		if latest == nil || after(m, latest) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// LatestJobConsumption implements ledger.Repository.
func (r *Repo) LatestJobConsumption(ctx context.Context, partID, jobID id.ID) (*ledger.MovementRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *ledger.MovementRecord
	for _, m := range r.movements {
		if m.Kind != ledger.KindConsumption || m.PartID != partID {
			continue
		}
		if m.DestRef == nil || *m.DestRef != jobID {
			continue
		}
		if latest == nil || after(m, latest) {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// after reports whether a sorts after b: latest occurred_at, ties broken by
// highest id.
func after(a, b *ledger.MovementRecord) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.After(b.OccurredAt)
	}
	return a.ID.String() > b.ID.String()
}
