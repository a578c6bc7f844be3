package domain

import (
	"context"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/core/tx"
	"partsledger/pkg/logger"
)

// Hook runs custom logic around catalog writes. Hooks execute inside the
// write transaction; returning an error aborts it.
type Hook[T Entity] func(ctx context.Context, ent T) error

// HookRegistry collects hooks for one catalog type. Registration happens at
// wiring time; no locking is needed afterwards.
type HookRegistry[T Entity] struct {
	beforeSave   []Hook[T]
	afterSave    []Hook[T]
	beforeDelete []Hook[T]
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry[T Entity]() *HookRegistry[T] {
	return &HookRegistry[T]{}
}

// BeforeSave registers a hook that runs before create and update, after
// Validate.
func (r *HookRegistry[T]) BeforeSave(h Hook[T]) {
	r.beforeSave = append(r.beforeSave, h)
}

// AfterSave registers a hook that runs after a successful create or update,
// still inside the transaction.
func (r *HookRegistry[T]) AfterSave(h Hook[T]) {
	r.afterSave = append(r.afterSave, h)
}

// BeforeDelete registers a hook that runs before the deletion mark is set.
// Used to block deleting catalogs that still hold stock.
func (r *HookRegistry[T]) BeforeDelete(h Hook[T]) {
	r.beforeDelete = append(r.beforeDelete, h)
}

func runHooks[T Entity](ctx context.Context, hooks []Hook[T], ent T) error {
	for _, h := range hooks {
		if err := h(ctx, ent); err != nil {
			return err
		}
	}
	return nil
}

// CatalogService implements CRUD for one catalog type with validation and
// hooks. Concrete catalogs embed it and add their own queries.
type CatalogService[T Entity] struct {
	repo       CatalogRepository[T]
	txManager  tx.Manager
	hooks      *HookRegistry[T]
	entityName string
}

// NewCatalogService wires a catalog service.
func NewCatalogService[T Entity](entityName string, repo CatalogRepository[T], txManager tx.Manager) *CatalogService[T] {
	return &CatalogService[T]{
		repo:       repo,
		txManager:  txManager,
		hooks:      NewHookRegistry[T](),
		entityName: entityName,
	}
}

// Hooks exposes the registry for wiring-time registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Create validates and stores a new catalog entry.
func (s *CatalogService[T]) Create(ctx context.Context, ent T) error {
	if err := ent.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := runHooks(ctx, s.hooks.beforeSave, ent); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, ent); err != nil {
			return err
		}
		return runHooks(ctx, s.hooks.afterSave, ent)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "catalog entry created",
		"entity", s.entityName,
		"id", ent.GetID(),
	)
	return nil
}

// Update validates and stores changes to an existing entry.
func (s *CatalogService[T]) Update(ctx context.Context, ent T) error {
	if err := ent.Validate(ctx); err != nil {
		return err
	}
	ent.Touch()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := runHooks(ctx, s.hooks.beforeSave, ent); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, ent); err != nil {
			return err
		}
		return runHooks(ctx, s.hooks.afterSave, ent)
	})
}

// GetByID loads one entry.
func (s *CatalogService[T]) GetByID(ctx context.Context, entID id.ID) (T, error) {
	return s.repo.GetByID(ctx, entID)
}

// GetByCode loads one entry by its human-readable code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	var zero T
	if code == "" {
		return zero, apperror.NewValidation("code is required")
	}
	return s.repo.GetByCode(ctx, code)
}

// List returns entries matching the filter.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) ([]T, error) {
	return s.repo.List(ctx, filter)
}

// Count returns the number of entries matching the filter.
func (s *CatalogService[T]) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return s.repo.Count(ctx, filter)
}

// Delete soft-deletes an entry after its beforeDelete hooks pass.
func (s *CatalogService[T]) Delete(ctx context.Context, entID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		ent, err := s.repo.GetByID(ctx, entID)
		if err != nil {
			return err
		}
		if err := runHooks(ctx, s.hooks.beforeDelete, ent); err != nil {
			return err
		}
		ent.MarkDeleted()
		return s.repo.SetDeletionMark(ctx, entID, true)
	})
}

// Restore clears the deletion mark.
func (s *CatalogService[T]) Restore(ctx context.Context, entID id.ID) error {
	return s.repo.SetDeletionMark(ctx, entID, false)
}
