// Package returns is the return authorization document: stock going back to
// a supplier for credit. Creating a return removes warehouse stock
// immediately, before pickup is confirmed; deleting an initiated return
// puts it back.
package returns

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/entity"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// Reason is why the stock goes back.
type Reason string

const (
	ReasonWrongPart Reason = "wrong_part"
	ReasonDamaged   Reason = "damaged"
	ReasonOverstock Reason = "overstock"
	ReasonDefective Reason = "defective"
	ReasonOther     Reason = "other"
)

func (r Reason) valid() bool {
	switch r {
	case ReasonWrongPart, ReasonDamaged, ReasonOverstock, ReasonDefective, ReasonOther:
		return true
	}
	return false
}

// Status is the return lifecycle state.
type Status string

const (
	StatusInitiated      Status = "initiated"
	StatusPickedUp       Status = "picked_up"
	StatusCreditReceived Status = "credit_received"
	StatusCancelled      Status = "cancelled"
)

// Authorization is the document header. Number holds the RA number
// (RA-2026-001).
type Authorization struct {
	entity.BaseDocument

	Number string `db:"number" json:"number"`

	SupplierID id.ID  `db:"supplier_id" json:"supplierId"`
	Reason     Reason `db:"reason" json:"reason"`

	// RelatedOrderID links the purchase order the stock came in on,
	// when known.
	RelatedOrderID *id.ID `db:"related_order_id" json:"relatedOrderId,omitempty"`

	Status Status `db:"status" json:"status"`

	// CreditAmount is set when the supplier credit arrives.
	CreditAmount types.Money `db:"credit_amount" json:"creditAmount"`

	PickedUpAt       *time.Time `db:"picked_up_at" json:"pickedUpAt,omitempty"`
	CreditReceivedAt *time.Time `db:"credit_received_at" json:"creditReceivedAt,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// New creates an initiated return for a supplier.
func New(supplierID id.ID, reason Reason) *Authorization {
	return &Authorization{
		BaseDocument: entity.NewBaseDocument(),
		SupplierID:   supplierID,
		Reason:       reason,
		Status:       StatusInitiated,
		CreditAmount: types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable.
func (a *Authorization) Validate(ctx context.Context) error {
	if id.IsNil(a.SupplierID) {
		return apperror.NewValidation("return requires a supplier").
			WithDetail("field", "supplierId")
	}
	if !a.Reason.valid() {
		return apperror.NewValidation("unknown return reason").
			WithDetail("reason", string(a.Reason))
	}
	return nil
}

// MarkPickedUp records the supplier collecting the stock.
func (a *Authorization) MarkPickedUp() error {
	if a.Status != StatusInitiated {
		return apperror.NewInvalidState("return", a.ID, string(a.Status), "mark picked up")
	}
	now := time.Now().UTC()
	a.Status = StatusPickedUp
	a.PickedUpAt = &now
	return nil
}

// MarkCreditReceived records the supplier credit arriving.
func (a *Authorization) MarkCreditReceived(amount types.Money) error {
	if a.Status != StatusPickedUp {
		return apperror.NewInvalidState("return", a.ID, string(a.Status), "mark credit received")
	}
	if amount.IsNegative() {
		return apperror.NewValidation("credit amount cannot be negative").
			WithDetail("amount", amount.String())
	}
	now := time.Now().UTC()
	a.Status = StatusCreditReceived
	a.CreditAmount = amount
	a.CreditReceivedAt = &now
	return nil
}

// Cancel voids an initiated return. Status only: the stock already left the
// warehouse and stays out; use Delete to void a return and restore stock.
func (a *Authorization) Cancel() error {
	if a.Status != StatusInitiated {
		return apperror.NewInvalidState("return", a.ID, string(a.Status), "cancel")
	}
	a.Status = StatusCancelled
	return nil
}

// CanDelete reports whether the return may be deleted with its ledger effect
// reversed. Only while initiated: once picked up, the stock is physically
// gone.
func (a *Authorization) CanDelete() bool {
	return a.Status == StatusInitiated
}

// Item is one returned line. Reason here is free text detail; the enumerated
// header reason classifies the document.
type Item struct {
	ID       id.ID `db:"id" json:"id"`
	ReturnID id.ID `db:"return_id" json:"returnId"`
	PartID   id.ID `db:"part_id" json:"partId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
	UnitCost types.Money    `db:"unit_cost" json:"unitCost"`

	Reason string `db:"reason" json:"reason,omitempty"`
}

// Validate checks the line's own invariants.
func (it *Item) Validate(ctx context.Context) error {
	if id.IsNil(it.PartID) {
		return apperror.NewValidation("return item requires a part").
			WithDetail("field", "partId")
	}
	if !it.Quantity.IsPositive() {
		return apperror.NewValidation("returned quantity must be positive").
			WithDetail("quantity", it.Quantity.String())
	}
	return nil
}

// ExpectedCredit sums quantity times unit cost over the lines.
func ExpectedCredit(items []Item) types.Money {
	total := types.ZeroMoney()
	for i := range items {
		total = total.Add(items[i].UnitCost.Mul(items[i].Quantity.Decimal()))
	}
	return total
}
