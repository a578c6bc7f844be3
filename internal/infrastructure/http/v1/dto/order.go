package dto

import (
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/documents/order"
)

// CreateOrderRequest is the request body for creating a purchase order.
type CreateOrderRequest struct {
	SupplierID string     `json:"supplierId" binding:"required"`
	ExpectedAt *time.Time `json:"expectedAt"`
	Notes      string     `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateOrderRequest) ToEntity() (*order.PurchaseOrder, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, apperror.NewValidation("invalid supplier id").
			WithDetail("supplierId", r.SupplierID)
	}
	o := order.New(supplierID)
	o.ExpectedAt = r.ExpectedAt
	o.Notes = r.Notes
	return o, nil
}

// OrderItemRequest is the request body for adding or updating an order line.
type OrderItemRequest struct {
	PartID          string         `json:"partId" binding:"required"`
	QuantityOrdered types.Quantity `json:"quantityOrdered" binding:"required"`
	UnitCost        types.Money    `json:"unitCost"`
	Notes           string         `json:"notes"`
}

// ToEntity converts DTO to an order line.
func (r *OrderItemRequest) ToEntity(orderID id.ID) (*order.Item, error) {
	partID, err := id.Parse(r.PartID)
	if err != nil {
		return nil, apperror.NewValidation("invalid part id").
			WithDetail("partId", r.PartID)
	}
	item := order.NewItem(orderID, partID, r.QuantityOrdered, r.UnitCost)
	item.Notes = r.Notes
	return item, nil
}

// ReceiveLineRequest is one line of a receive call.
type ReceiveLineRequest struct {
	OrderItemID string         `json:"orderItemId" binding:"required"`
	Quantity    types.Quantity `json:"quantity" binding:"required"`

	// Allocation routes the received quantity: warehouse (default), truck,
	// or job. TargetID names the truck or job.
	Allocation string  `json:"allocation"`
	TargetID   *string `json:"targetId"`
}

// ReceiveRequest is the request body for receiving order items.
type ReceiveRequest struct {
	Lines []ReceiveLineRequest `json:"lines" binding:"required"`
}

// ToLines converts the request to service receive lines.
func (r *ReceiveRequest) ToLines() ([]order.ReceiveLine, error) {
	lines := make([]order.ReceiveLine, 0, len(r.Lines))
	for i := range r.Lines {
		in := &r.Lines[i]

		itemID, err := id.Parse(in.OrderItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid order item id").
				WithDetail("orderItemId", in.OrderItemID)
		}

		line := order.ReceiveLine{
			OrderItemID: itemID,
			Quantity:    in.Quantity,
			Allocation:  order.AllocationTarget(in.Allocation),
		}
		if in.TargetID != nil {
			targetID, err := id.Parse(*in.TargetID)
			if err != nil {
				return nil, apperror.NewValidation("invalid allocation target id").
					WithDetail("targetId", *in.TargetID)
			}
			line.TargetID = &targetID
		}
		lines = append(lines, line)
	}
	return lines, nil
}
