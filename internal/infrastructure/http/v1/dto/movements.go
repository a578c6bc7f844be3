package dto

import (
	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// CreateTransferRequest stages a warehouse-to-truck transfer.
type CreateTransferRequest struct {
	PartID   string         `json:"partId" binding:"required"`
	TruckID  string         `json:"truckId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`

	// SupplierID overrides supplier auto-detection when set.
	SupplierID *string `json:"supplierId"`
}

// ConsumeRequest uses truck stock on a job.
type ConsumeRequest struct {
	TruckID  string         `json:"truckId" binding:"required"`
	JobID    string         `json:"jobId" binding:"required"`
	PartID   string         `json:"partId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
}

// TruckReturnRequest moves unused truck stock back to the warehouse.
type TruckReturnRequest struct {
	TruckID  string         `json:"truckId" binding:"required"`
	PartID   string         `json:"partId" binding:"required"`
	Quantity types.Quantity `json:"quantity" binding:"required"`
}

// ParseID parses a request id field into an id.ID.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id").
			WithDetail(field, value)
	}
	return parsed, nil
}

// ParseOptionalID parses an optional request id field.
func ParseOptionalID(field string, value *string) (*id.ID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := ParseID(field, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
