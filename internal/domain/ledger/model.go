// Package ledger provides the quantity ledger: durable stock per
// (part, location) plus the append-only movement history every other
// component derives from.
package ledger

import (
	"time"

	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// LocationKind discriminates the three places stock can sit.
type LocationKind string

const (
	LocationWarehouse LocationKind = "warehouse"
	LocationTruck     LocationKind = "truck"
	LocationJob       LocationKind = "job"

	// LocationExternal marks the supplier side of receives and returns.
	// No stock balance is kept for it.
	LocationExternal LocationKind = "external"
)

// Location is a stock location: the warehouse, a truck, or a job.
// RefID is nil-valued for the warehouse.
type Location struct {
	Kind  LocationKind `json:"kind"`
	RefID id.ID        `json:"refId,omitempty"`
}

// Warehouse returns the warehouse location.
func Warehouse() Location {
	return Location{Kind: LocationWarehouse}
}

// Truck returns the location of a truck.
func Truck(truckID id.ID) Location {
	return Location{Kind: LocationTruck, RefID: truckID}
}

// Job returns the location of a job site.
func Job(jobID id.ID) Location {
	return Location{Kind: LocationJob, RefID: jobID}
}

// External returns the supplier-side location.
func External() Location {
	return Location{Kind: LocationExternal}
}

// Tracked reports whether a stock balance exists for this location.
func (l Location) Tracked() bool {
	return l.Kind != LocationExternal
}

// String renders the location for error details and logs.
func (l Location) String() string {
	if l.Kind == LocationWarehouse || l.Kind == LocationExternal {
		return string(l.Kind)
	}
	return string(l.Kind) + ":" + l.RefID.String()
}

// MovementKind tags the four movement families.
type MovementKind string

const (
	KindReceive     MovementKind = "receive"
	KindTransfer    MovementKind = "transfer"
	KindConsumption MovementKind = "consumption"
	KindReturn      MovementKind = "return"
)

// TransferStatus applies to KindTransfer rows only. Stock leaves the
// warehouse when the transfer is created and lands on the truck when it is
// received; a pending transfer's quantity is in transit. Cancelling a
// pending transfer restores the warehouse balance.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// MovementRecord is one immutable audit row. Records are never mutated after
// creation except for a transfer's status and completion timestamp when it
// is received.
type MovementRecord struct {
	// ID is a UUIDv7: time-ordered, so "highest id" means "latest".
	ID id.ID `db:"id" json:"id"`

	Kind MovementKind `db:"kind" json:"kind"`

	// Status is set for transfers, empty otherwise.
	Status TransferStatus `db:"status" json:"status,omitempty"`

	PartID   id.ID          `db:"part_id" json:"partId"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	SourceKind LocationKind `db:"source_kind" json:"sourceKind"`
	SourceRef  *id.ID       `db:"source_ref" json:"sourceRef,omitempty"`
	DestKind   LocationKind `db:"dest_kind" json:"destKind"`
	DestRef    *id.ID       `db:"dest_ref" json:"destRef,omitempty"`

	// SupplierID is the supplier lineage attribution. Nullable: manual
	// movements may predate lineage tracking.
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// SourceOrderID links back to the purchase order, when there is one.
	SourceOrderID *id.ID `db:"source_order_id" json:"sourceOrderId,omitempty"`

	// UnitCost snapshot for cost reporting.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// RecorderType/RecorderID name the document that produced this row
	// (order, return authorization, manual transfer). Reversing a document
	// deletes its rows by recorder.
	RecorderType string `db:"recorder_type" json:"recorderType"`
	RecorderID   id.ID  `db:"recorder_id" json:"recorderId"`

	OccurredAt  time.Time  `db:"occurred_at" json:"occurredAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	// ActorID is the acting user, for audit.
	ActorID id.ID `db:"actor_id" json:"actorId"`
}

// Source returns the source location.
func (m *MovementRecord) Source() Location {
	return locationOf(m.SourceKind, m.SourceRef)
}

// Dest returns the destination location.
func (m *MovementRecord) Dest() Location {
	return locationOf(m.DestKind, m.DestRef)
}

func locationOf(kind LocationKind, ref *id.ID) Location {
	loc := Location{Kind: kind}
	if ref != nil {
		loc.RefID = *ref
	}
	return loc
}

// SetSource assigns the source location fields.
func (m *MovementRecord) SetSource(loc Location) {
	m.SourceKind = loc.Kind
	m.SourceRef = refOf(loc)
}

// SetDest assigns the destination location fields.
func (m *MovementRecord) SetDest(loc Location) {
	m.DestKind = loc.Kind
	m.DestRef = refOf(loc)
}

func refOf(loc Location) *id.ID {
	if loc.Kind != LocationTruck && loc.Kind != LocationJob {
		return nil
	}
	if id.IsNil(loc.RefID) {
		return nil
	}
	ref := loc.RefID
	return &ref
}

// NewMovement builds a movement row with a fresh UUIDv7 and timestamp.
func NewMovement(kind MovementKind, partID id.ID, qty types.Quantity, source, dest Location) *MovementRecord {
	m := &MovementRecord{
		ID:         id.New(),
		Kind:       kind,
		PartID:     partID,
		Quantity:   qty,
		OccurredAt: time.Now().UTC(),
	}
	m.SetSource(source)
	m.SetDest(dest)
	return m
}

// LocationStock is the balance of a part at a location. Mutated exclusively
// through movement operations; quantity never goes below zero.
type LocationStock struct {
	PartID       id.ID          `db:"part_id" json:"partId"`
	LocationKind LocationKind   `db:"location_kind" json:"locationKind"`
	LocationRef  *id.ID         `db:"location_ref" json:"locationRef,omitempty"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// Location returns the stock row's location.
func (s *LocationStock) Location() Location {
	return locationOf(s.LocationKind, s.LocationRef)
}
