package dto

import (
	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
	"partsledger/internal/domain/partslist"
)

// CreateListRequest is the request body for creating a parts list.
type CreateListRequest struct {
	Name  string  `json:"name" binding:"required"`
	JobID *string `json:"jobId"`
	Notes string  `json:"notes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateListRequest) ToEntity() (*partslist.List, error) {
	l := partslist.New(r.Name)
	l.Notes = r.Notes
	if r.JobID != nil && *r.JobID != "" {
		jobID, err := id.Parse(*r.JobID)
		if err != nil {
			return nil, apperror.NewValidation("invalid job id").
				WithDetail("jobId", *r.JobID)
		}
		l.JobID = &jobID
	}
	return l, nil
}

// UpdateListRequest is the request body for updating a parts list.
type UpdateListRequest struct {
	Name  string  `json:"name" binding:"required"`
	JobID *string `json:"jobId"`
	Notes string  `json:"notes"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateListRequest) ApplyTo(l *partslist.List) error {
	l.Name = r.Name
	l.Notes = r.Notes
	l.JobID = nil
	if r.JobID != nil && *r.JobID != "" {
		jobID, err := id.Parse(*r.JobID)
		if err != nil {
			return apperror.NewValidation("invalid job id").
				WithDetail("jobId", *r.JobID)
		}
		l.JobID = &jobID
	}
	return nil
}

// SetListItemRequest sets the required quantity for a part on a list.
type SetListItemRequest struct {
	PartID           string         `json:"partId" binding:"required"`
	RequiredQuantity types.Quantity `json:"requiredQuantity" binding:"required"`
	Notes            string         `json:"notes"`
}

// ToEntity converts DTO to a list item.
func (r *SetListItemRequest) ToEntity(listID id.ID) (*partslist.Item, error) {
	partID, err := id.Parse(r.PartID)
	if err != nil {
		return nil, apperror.NewValidation("invalid part id").
			WithDetail("partId", r.PartID)
	}
	return &partslist.Item{
		ListID:           listID,
		PartID:           partID,
		RequiredQuantity: r.RequiredQuantity,
		Notes:            r.Notes,
	}, nil
}
