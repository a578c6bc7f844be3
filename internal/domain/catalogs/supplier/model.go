// Package supplier is the suppliers catalog. Suppliers are the anchor of
// movement lineage: every receive, consumption, and return attributes its
// quantity to one.
package supplier

import (
	"context"
	"time"

	"partsledger/internal/core/entity"
)

// Supplier is a vendor parts are purchased from and returned to.
type Supplier struct {
	entity.Catalog

	ContactName string `db:"contact_name" json:"contactName,omitempty"`
	Phone       string `db:"phone" json:"phone,omitempty"`
	Email       string `db:"email" json:"email,omitempty"`
	Address     string `db:"address" json:"address,omitempty"`

	// IsSupplyHouse marks walk-in counters trucks restock from directly.
	IsSupplyHouse bool `db:"is_supply_house" json:"isSupplyHouse"`

	// OperatingHours is free text shown when picking a supply house.
	OperatingHours string `db:"operating_hours" json:"operatingHours,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a supplier with a generated id.
func New(name string) *Supplier {
	now := time.Now().UTC()
	return &Supplier{
		Catalog:   entity.NewCatalog("", name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	return s.Catalog.Validate(ctx)
}
