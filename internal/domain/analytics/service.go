// Package analytics provides the read-only derived views: supplier lineage
// chains, suggested return suppliers, and shortfall checks. Everything here
// is computed from committed ledger history inside a read-only snapshot;
// nothing blocks writers and nothing mutates.
package analytics

import (
	"context"
	"sort"
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/partslist"
)

// EventType classifies chain events for display.
type EventType string

const (
	EventReceived    EventType = "received"
	EventTransferred EventType = "transferred"
	EventConsumed    EventType = "consumed"
	EventReturned    EventType = "returned"
)

// ChainEvent is one step in a part's supplier lineage, oldest first.
type ChainEvent struct {
	EventType    EventType      `json:"eventType"`
	SupplierID   *id.ID         `json:"supplierId,omitempty"`
	SupplierName string         `json:"supplierName,omitempty"`
	Quantity     types.Quantity `json:"quantity"`
	Source       string         `json:"source"`
	Dest         string         `json:"dest"`
	OccurredAt   time.Time      `json:"occurredAt"`
}

// ShortfallRow is one line of a shortfall check.
type ShortfallRow struct {
	PartID      id.ID          `json:"partId"`
	Number      string         `json:"number"`
	Description string         `json:"description"`

	Required  types.Quantity `json:"required"`
	InStock   types.Quantity `json:"inStock"`
	Shortfall types.Quantity `json:"shortfall"`

	UnitCost      types.Money `json:"unitCost"`
	EstimatedCost types.Money `json:"estimatedCost"`
}

// Service answers the derived queries.
type Service struct {
	store     *ledger.Store
	jobParts  job.PartRepository
	parts     part.Repository
	suppliers supplier.Repository
	lists     partslist.Repository
	txManager tx.ReadOnlyManager
}

// NewService wires the analytics service.
func NewService(store *ledger.Store, jobParts job.PartRepository, parts part.Repository,
	suppliers supplier.Repository, lists partslist.Repository, txManager tx.ReadOnlyManager) *Service {
	return &Service{
		store:     store,
		jobParts:  jobParts,
		parts:     parts,
		suppliers: suppliers,
		lists:     lists,
		txManager: txManager,
	}
}

// PartSupplierChain reconstructs a part's lineage from movement history,
// oldest first. Pending and cancelled transfers are omitted; a transfer
// enters the chain when it lands on the truck.
func (s *Service) PartSupplierChain(ctx context.Context, partID id.ID) ([]ChainEvent, error) {
	var chain []ChainEvent
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		history, err := s.store.History(ctx, ledger.HistoryFilter{PartID: &partID})
		if err != nil {
			return err
		}

		names := map[id.ID]string{}
		chain = make([]ChainEvent, 0, len(history))
		for i := range history {
			rec := &history[i]

			var eventType EventType
			occurredAt := rec.OccurredAt
			switch rec.Kind {
			case ledger.KindReceive:
				eventType = EventReceived
			case ledger.KindTransfer:
				if rec.Status != ledger.TransferCompleted {
					continue
				}
				eventType = EventTransferred
				if rec.CompletedAt != nil {
					occurredAt = *rec.CompletedAt
				}
			case ledger.KindConsumption:
				eventType = EventConsumed
			case ledger.KindReturn:
				eventType = EventReturned
			default:
				continue
			}

			event := ChainEvent{
				EventType:  eventType,
				SupplierID: rec.SupplierID,
				Quantity:   rec.Quantity,
				Source:     rec.Source().String(),
				Dest:       rec.Dest().String(),
				OccurredAt: occurredAt,
			}
			if rec.SupplierID != nil {
				name, err := s.supplierName(ctx, names, *rec.SupplierID)
				if err != nil {
					return err
				}
				event.SupplierName = name
			}
			chain = append(chain, event)
		}

		// Transfers display their completion time, which can postdate
		// movements recorded while they were in transit.
		sort.SliceStable(chain, func(i, j int) bool {
			return chain[i].OccurredAt.Before(chain[j].OccurredAt)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chain, nil
}

func (s *Service) supplierName(ctx context.Context, cache map[id.ID]string, supplierID id.ID) (string, error) {
	if name, ok := cache[supplierID]; ok {
		return name, nil
	}
	sup, err := s.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return "", err
	}
	cache[supplierID] = sup.Name
	return sup.Name, nil
}

// SuggestedReturnSupplier resolves where returned stock should go back to:
// the job's recorded supplier for the part, then the latest consumption on
// that job, then the latest receive of the part anywhere. Nil when the part
// has no supplier history.
func (s *Service) SuggestedReturnSupplier(ctx context.Context, partID id.ID, jobID *id.ID) (*id.ID, error) {
	var suggested *id.ID
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		if jobID != nil {
			bound, err := s.jobParts.GetJobPartSupplier(ctx, *jobID, partID)
			if err != nil {
				return err
			}
			if bound != nil {
				suggested = bound
				return nil
			}

			rec, err := s.store.LatestJobConsumption(ctx, partID, *jobID)
			if err != nil {
				return err
			}
			if rec != nil && rec.SupplierID != nil {
				suggested = rec.SupplierID
				return nil
			}
		}

		attr, err := s.store.LatestReceive(ctx, partID)
		if err != nil {
			return err
		}
		if attr != nil {
			suggested = attr.SupplierID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return suggested, nil
}

// CheckShortfall compares a parts list against warehouse stock. For each
// required line: shortfall = max(0, required - in stock), estimated at the
// part's current list cost. Read-only.
func (s *Service) CheckShortfall(ctx context.Context, listID id.ID) ([]ShortfallRow, error) {
	var rows []ShortfallRow
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		items, err := s.lists.ListItems(ctx, listID)
		if err != nil {
			return err
		}

		rows = make([]ShortfallRow, 0, len(items))
		for i := range items {
			item := &items[i]

			p, err := s.parts.GetByID(ctx, item.PartID)
			if err != nil {
				return err
			}
			inStock, err := s.store.GetStock(ctx, item.PartID, ledger.Warehouse())
			if err != nil {
				return err
			}

			shortfall := item.RequiredQuantity - inStock
			if shortfall.IsNegative() {
				shortfall = 0
			}

			rows = append(rows, ShortfallRow{
				PartID:        item.PartID,
				Number:        p.Code,
				Description:   p.Description,
				Required:      item.RequiredQuantity,
				InStock:       inStock,
				Shortfall:     shortfall,
				UnitCost:      p.UnitCost,
				EstimatedCost: p.UnitCost.Mul(shortfall.Decimal()),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// StockByPart returns a part's balances across locations.
func (s *Service) StockByPart(ctx context.Context, partID id.ID) ([]ledger.LocationStock, error) {
	var stocks []ledger.LocationStock
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		stocks, err = s.store.ListStockByPart(ctx, partID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stocks, nil
}

// TruckInventory returns a truck's current balances.
func (s *Service) TruckInventory(ctx context.Context, truckID id.ID) ([]ledger.LocationStock, error) {
	var stocks []ledger.LocationStock
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		stocks, err = s.store.ListStockByLocation(ctx, ledger.Truck(truckID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return stocks, nil
}
