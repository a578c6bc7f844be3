// Package order is the purchase order document: header, items, and the
// lifecycle state machine. Receiving against an order is the only way stock
// enters the ledger.
package order

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/entity"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// Status is the order lifecycle state. received and partial are derived from
// item receipt progress; cancelled and closed are user actions.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusPartial   Status = "partial"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
	StatusClosed    Status = "closed"
)

// Terminal reports whether no further transitions leave the state.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusClosed
}

// Receivable reports whether stock may still be received against the order.
// Drafts are not receivable: receiving requires a submitted order. Over-receiving
// against a fully received order is permitted.
func (s Status) Receivable() bool {
	switch s {
	case StatusSubmitted, StatusPartial, StatusReceived:
		return true
	}
	return false
}

// PurchaseOrder is the document header.
type PurchaseOrder struct {
	entity.BaseDocument

	// Number is the document number (PO-2026-00001), assigned at creation.
	Number string `db:"number" json:"number"`

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Status Status `db:"status" json:"status"`

	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`

	// ExpectedAt is the promised delivery date, optional.
	ExpectedAt *time.Time `db:"expected_at" json:"expectedAt,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// New creates a draft order for a supplier.
func New(supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		BaseDocument: entity.NewBaseDocument(),
		SupplierID:   supplierID,
		Status:       StatusDraft,
	}
}

// Validate implements entity.Validatable.
func (o *PurchaseOrder) Validate(ctx context.Context) error {
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("order requires a supplier").
			WithDetail("field", "supplierId")
	}
	switch o.Status {
	case StatusDraft, StatusSubmitted, StatusPartial, StatusReceived, StatusCancelled, StatusClosed:
	default:
		return apperror.NewValidation("unknown order status").
			WithDetail("status", string(o.Status))
	}
	return nil
}

// Submit moves a draft order with at least one item to submitted.
func (o *PurchaseOrder) Submit(itemCount int) error {
	if o.Status != StatusDraft {
		return apperror.NewInvalidState("order", o.ID, string(o.Status), "submit")
	}
	if itemCount == 0 {
		return apperror.NewValidation("cannot submit an order with no items").
			WithDetail("order_id", o.ID)
	}
	now := time.Now().UTC()
	o.Status = StatusSubmitted
	o.SubmittedAt = &now
	return nil
}

// Cancel moves the order to cancelled from any non-terminal state.
// Past receipts stay on the ledger.
func (o *PurchaseOrder) Cancel() error {
	if o.Status.Terminal() {
		return apperror.NewInvalidState("order", o.ID, string(o.Status), "cancel")
	}
	o.Status = StatusCancelled
	return nil
}

// Close moves a fully received order to closed.
func (o *PurchaseOrder) Close() error {
	if o.Status != StatusReceived {
		return apperror.NewInvalidState("order", o.ID, string(o.Status), "close")
	}
	o.Status = StatusClosed
	return nil
}

// CanDelete reports whether the order may be deleted. Only drafts: a draft
// never touched the ledger, so deletion needs no reversal.
func (o *PurchaseOrder) CanDelete() bool {
	return o.Status == StatusDraft
}

// RecomputeStatus derives the receipt status from item progress. The status
// never regresses: a received order stays received, terminal states are left
// alone, and a submitted order with no receipts keeps its state.
func (o *PurchaseOrder) RecomputeStatus(items []Item) {
	if o.Status.Terminal() || o.Status == StatusReceived {
		return
	}
	if len(items) == 0 {
		return
	}

	allFull := true
	anyReceived := false
	for i := range items {
		if items[i].QuantityReceived.IsPositive() {
			anyReceived = true
		}
		if items[i].QuantityReceived < items[i].QuantityOrdered {
			allFull = false
		}
	}

	switch {
	case allFull:
		o.Status = StatusReceived
	case anyReceived:
		o.Status = StatusPartial
	}
}

// Item is one ordered line. QuantityReceived accumulates across receipts and
// may exceed QuantityOrdered; over-receiving carries no hard ceiling.
type Item struct {
	ID      id.ID `db:"id" json:"id"`
	OrderID id.ID `db:"order_id" json:"orderId"`
	PartID  id.ID `db:"part_id" json:"partId"`

	QuantityOrdered  types.Quantity `db:"quantity_ordered" json:"quantityOrdered"`
	QuantityReceived types.Quantity `db:"quantity_received" json:"quantityReceived"`

	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewItem creates an order line.
func NewItem(orderID, partID id.ID, ordered types.Quantity, unitCost types.Money) *Item {
	return &Item{
		ID:              id.New(),
		OrderID:         orderID,
		PartID:          partID,
		QuantityOrdered: ordered,
		UnitCost:        unitCost,
	}
}

// Validate checks the line's own invariants.
func (it *Item) Validate(ctx context.Context) error {
	if id.IsNil(it.PartID) {
		return apperror.NewValidation("order item requires a part").
			WithDetail("field", "partId")
	}
	if !it.QuantityOrdered.IsPositive() {
		return apperror.NewValidation("ordered quantity must be positive").
			WithDetail("quantity", it.QuantityOrdered.String())
	}
	if it.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("unitCost", it.UnitCost.String())
	}
	return nil
}

// FullyReceived reports whether the line met its ordered quantity.
func (it *Item) FullyReceived() bool {
	return it.QuantityReceived >= it.QuantityOrdered
}
