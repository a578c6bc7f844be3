// Package partslist holds named lists of required part quantities: the
// material takeoff for a job or a standard truck loadout. Shortfall
// checking runs against these lists.
package partslist

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/entity"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// List is a named set of required quantities.
type List struct {
	entity.Catalog

	// JobID ties the list to a job, optional.
	JobID *id.ID `db:"job_id" json:"jobId,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a list with a generated id.
func New(name string) *List {
	now := time.Now().UTC()
	return &List{
		Catalog:   entity.NewCatalog("", name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements entity.Validatable.
func (l *List) Validate(ctx context.Context) error {
	return l.Catalog.Validate(ctx)
}

// Item is one required line. One row per part per list.
type Item struct {
	ID     id.ID `db:"id" json:"id"`
	ListID id.ID `db:"list_id" json:"listId"`
	PartID id.ID `db:"part_id" json:"partId"`

	RequiredQuantity types.Quantity `db:"required_quantity" json:"requiredQuantity"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// Validate checks the line's own invariants.
func (it *Item) Validate(ctx context.Context) error {
	if id.IsNil(it.PartID) {
		return apperror.NewValidation("list item requires a part").
			WithDetail("field", "partId")
	}
	if !it.RequiredQuantity.IsPositive() {
		return apperror.NewValidation("required quantity must be positive").
			WithDetail("quantity", it.RequiredQuantity.String())
	}
	return nil
}
