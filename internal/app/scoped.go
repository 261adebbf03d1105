package app

import (
	"context"

	"tasktracker/internal/domain"
)

// Ownership tells a ScopedResource how to read and assign the owner of T.
type Ownership[T any] struct {
	Owner    func(*T) int64
	SetOwner func(*T, int64)
}

// ScopedResource exposes CRUD over an OwnedStore restricted to the calling
// principal. Records owned by other users behave exactly like missing ones.
type ScopedResource[T any] struct {
	store domain.OwnedStore[T]
	own   Ownership[T]
}

// NewScopedResource creates a ScopedResource over store.
func NewScopedResource[T any](store domain.OwnedStore[T], own Ownership[T]) *ScopedResource[T] {
	return &ScopedResource[T]{store: store, own: own}
}

func principalID(principal *domain.User) (int64, error) {
	if principal == nil {
		return 0, domain.ErrUnauthorized
	}
	return principal.ID, nil
}

// List returns every record owned by principal, newest first.
func (r *ScopedResource[T]) List(ctx context.Context, principal *domain.User) ([]T, error) {
	owner, err := principalID(principal)
	if err != nil {
		return nil, err
	}
	items, err := r.store.FindAllByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Get returns the record with id if principal owns it.
func (r *ScopedResource[T]) Get(ctx context.Context, principal *domain.User, id int64) (*T, error) {
	owner, err := principalID(principal)
	if err != nil {
		return nil, err
	}
	return r.store.FindByID(ctx, owner, id)
}

// Create stores item with principal as its owner, overriding whatever owner
// item carried.
func (r *ScopedResource[T]) Create(ctx context.Context, principal *domain.User, item *T) error {
	owner, err := principalID(principal)
	if err != nil {
		return err
	}
	r.own.SetOwner(item, owner)
	return r.store.Insert(ctx, item)
}

// Modify loads the record, lets mutate change it and persists the result.
// The owner read from the store is written back after mutate returns.
func (r *ScopedResource[T]) Modify(ctx context.Context, principal *domain.User, id int64, mutate func(*T) error) (*T, error) {
	item, err := r.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	owner := r.own.Owner(item)
	if err := mutate(item); err != nil {
		return nil, err
	}
	r.own.SetOwner(item, owner)
	if err := r.store.Update(ctx, owner, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes the record with id if principal owns it.
func (r *ScopedResource[T]) Delete(ctx context.Context, principal *domain.User, id int64) error {
	owner, err := principalID(principal)
	if err != nil {
		return err
	}
	return r.store.Delete(ctx, owner, id)
}
