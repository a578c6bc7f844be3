package dto

import (
	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/documents/returns"
)

// ReturnItemRequest is one line of a return authorization.
type ReturnItemRequest struct {
	PartID   string         `json:"partId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
	UnitCost types.Money    `json:"unitCost"`
	Reason   string         `json:"reason"`
}

// CreateReturnRequest is the request body for creating a return
// authorization. Header plus items commit as one unit.
type CreateReturnRequest struct {
	SupplierID     string              `json:"supplierId" binding:"required"`
	Reason         string              `json:"reason" binding:"required"`
	RelatedOrderID *string             `json:"relatedOrderId"`
	Notes          string              `json:"notes"`
	Items          []ReturnItemRequest `json:"items" binding:"required"`
}

// ToInput converts the request to the service create input.
func (r *CreateReturnRequest) ToInput() (returns.NewReturn, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return returns.NewReturn{}, apperror.NewValidation("invalid supplier id").
			WithDetail("supplierId", r.SupplierID)
	}

	input := returns.NewReturn{
		SupplierID: supplierID,
		Reason:     returns.Reason(r.Reason),
		Notes:      r.Notes,
	}
	if r.RelatedOrderID != nil && *r.RelatedOrderID != "" {
		orderID, err := id.Parse(*r.RelatedOrderID)
		if err != nil {
			return returns.NewReturn{}, apperror.NewValidation("invalid related order id").
				WithDetail("relatedOrderId", *r.RelatedOrderID)
		}
		input.RelatedOrderID = &orderID
	}

	input.Items = make([]returns.Item, 0, len(r.Items))
	for i := range r.Items {
		in := &r.Items[i]
		partID, err := id.Parse(in.PartID)
		if err != nil {
			return returns.NewReturn{}, apperror.NewValidation("invalid part id").
				WithDetail("partId", in.PartID)
		}
		input.Items = append(input.Items, returns.Item{
			PartID:   partID,
			Quantity: in.Quantity,
			UnitCost: in.UnitCost,
			Reason:   in.Reason,
		})
	}
	return input, nil
}

// CreditRequest records the supplier credit amount.
type CreditRequest struct {
	Amount types.Money `json:"amount" binding:"required"`
}
