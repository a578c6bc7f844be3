// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"partsledger/internal/core/id"
)

// ListRequest contains common listing parameters.
type ListRequest struct {
	Search         string `form:"search"`
	IncludeDeleted bool   `form:"includeDeleted"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
	OrderBy        string `form:"orderBy"`
	Desc           bool   `form:"desc"`
}

// ListResponse wraps list results.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// StatusResponse reports a document's status after a lifecycle operation.
type StatusResponse struct {
	Status string `json:"status"`
}
