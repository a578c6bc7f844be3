package entity

import (
	"context"

	"partsledger/internal/core/apperror"
)

// Catalog is the base type for reference data: parts, suppliers, trucks,
// jobs. Catalogs are flat; the ledger has no hierarchical reference data.
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier, unique per catalog
	// (part number, truck number, job number).
	Code string `db:"code" json:"code"`

	// Name is the display name.
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a Catalog with a generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	// Code may be auto-generated by the numerator at save time.
	return nil
}
