// Package domain holds the generic catalog machinery shared by parts,
// suppliers, trucks, and jobs, plus the repository contracts the concrete
// catalog packages implement.
package domain

import (
	"context"

	"partsledger/internal/core/entity"
	"partsledger/internal/core/id"
)

// Entity is the behavior the generic catalog machinery requires. Concrete
// catalog models embed entity.Catalog and satisfy it with pointer receivers.
type Entity interface {
	entity.Validatable
	GetID() id.ID
	Touch()
	MarkDeleted()
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	// Search matches against code and name, case-insensitive.
	Search string

	// IncludeDeleted includes soft-deleted rows.
	IncludeDeleted bool

	// Limit/Offset paginate. Limit 0 means the repository default.
	Limit  int
	Offset int

	// OrderBy is a whitelisted column name; empty means "code".
	OrderBy string
	Desc    bool
}

// CatalogRepository is the storage contract for one catalog type.
type CatalogRepository[T Entity] interface {
	Create(ctx context.Context, ent T) error
	GetByID(ctx context.Context, entID id.ID) (T, error)
	GetByCode(ctx context.Context, code string) (T, error)
	Update(ctx context.Context, ent T) error
	SetDeletionMark(ctx context.Context, entID id.ID, mark bool) error
	List(ctx context.Context, filter ListFilter) ([]T, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
}
