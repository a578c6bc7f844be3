// Package truck is the trucks catalog. A truck is a mobile stock location;
// its inventory lives in the ledger under Location{Kind: truck}.
package truck

import (
	"context"
	"time"

	"partsledger/internal/core/entity"
)

// Truck is a service vehicle carrying stock. Code holds the truck number.
type Truck struct {
	entity.Catalog

	// AssignedTo is the technician currently driving it, free text.
	AssignedTo string `db:"assigned_to" json:"assignedTo,omitempty"`

	// IsActive marks trucks in service. Inactive trucks keep their ledger
	// balances but are hidden from transfer targets.
	IsActive bool `db:"is_active" json:"isActive"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates an active truck with a generated id.
func New(number, name string) *Truck {
	now := time.Now().UTC()
	return &Truck{
		Catalog:   entity.NewCatalog(number, name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements entity.Validatable.
func (t *Truck) Validate(ctx context.Context) error {
	return t.Catalog.Validate(ctx)
}
