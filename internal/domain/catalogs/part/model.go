// Package part is the parts catalog. A part is identity only; its
// quantities live in the ledger, per location.
package part

import (
	"context"
	"time"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/entity"
	"partsledger/internal/core/id"
	"partsledger/internal/core/types"
)

// Part is a catalog item. Code holds the part number.
type Part struct {
	entity.Catalog

	// Description of the part.
	Description string `db:"description" json:"description"`

	// CategoryID groups parts, optional.
	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	// UnitCost is the current list cost. Movements snapshot it; changing
	// it later never rewrites history.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// MinQuantity is the reorder threshold for warehouse stock.
	// Zero disables low-stock reporting for the part.
	MinQuantity types.Quantity `db:"min_quantity" json:"minQuantity"`

	Notes string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a part with a generated id.
func New(number, description string) *Part {
	now := time.Now().UTC()
	return &Part{
		Catalog:     entity.NewCatalog(number, description),
		Description: description,
		UnitCost:    types.ZeroMoney(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate implements entity.Validatable.
func (p *Part) Validate(ctx context.Context) error {
	if p.Code == "" {
		return apperror.NewValidation("part number is required").
			WithDetail("field", "code")
	}
	if p.MinQuantity.IsNegative() {
		return apperror.NewValidation("min quantity cannot be negative").
			WithDetail("field", "minQuantity")
	}
	if p.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}
	if p.Name == "" {
		p.Name = p.Description
	}
	return p.Catalog.Validate(ctx)
}

// Category is the optional grouping for parts.
type Category struct {
	entity.Catalog

	Description string `db:"description" json:"description,omitempty"`
}

// Validate implements entity.Validatable.
func (c *Category) Validate(ctx context.Context) error {
	return c.Catalog.Validate(ctx)
}

// LowStockRow is a read-side projection: a part whose warehouse balance sits
// below its reorder threshold.
type LowStockRow struct {
	PartID      id.ID          `db:"part_id" json:"partId"`
	Number      string         `db:"number" json:"number"`
	Description string         `db:"description" json:"description"`
	MinQuantity types.Quantity `db:"min_quantity" json:"minQuantity"`
	InStock     types.Quantity `db:"in_stock" json:"inStock"`
	UnitCost    types.Money    `db:"unit_cost" json:"unitCost"`
}
