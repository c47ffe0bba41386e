package store

import (
	"context"
	"fmt"
	"sort"
)

// Router serves each collection from the backend registered for it.
type Router struct {
	backends map[CollectionRef]Adapter
}

// NewRouter creates a router from a collection → backend table.
// Every backend must be non-nil.
func NewRouter(backends map[CollectionRef]Adapter) (*Router, error) {
	table := make(map[CollectionRef]Adapter, len(backends))
	for ref, backend := range backends {
		if backend == nil {
			return nil, fmt.Errorf("backend for collection %q cannot be nil", ref)
		}
		table[ref] = backend
	}
	return &Router{backends: table}, nil
}

// Collections lists the routed collections in name order.
func (r *Router) Collections() []CollectionRef {
	refs := make([]CollectionRef, 0, len(r.backends))
	for ref := range r.backends {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

func (r *Router) backend(op string, ref CollectionRef, id string) (Adapter, error) {
	b, ok := r.backends[ref]
	if !ok {
		return nil, &AdapterError{Op: op, Collection: ref, ID: id, Cause: ErrUnknownCollection}
	}
	return b, nil
}

// FetchAll implements Adapter.
func (r *Router) FetchAll(ctx context.Context, ref CollectionRef) ([]Record, error) {
	b, err := r.backend(OpFetchAll, ref, "")
	if err != nil {
		return nil, err
	}
	records, err := b.FetchAll(ctx, ref)
	return records, wrapErr(OpFetchAll, ref, "", err)
}

// FetchFiltered implements Adapter.
func (r *Router) FetchFiltered(ctx context.Context, ref CollectionRef, filter Filter) ([]Record, error) {
	b, err := r.backend(OpFetchFiltered, ref, "")
	if err != nil {
		return nil, err
	}
	records, err := b.FetchFiltered(ctx, ref, filter)
	return records, wrapErr(OpFetchFiltered, ref, "", err)
}

// Create implements Adapter.
func (r *Router) Create(ctx context.Context, ref CollectionRef, payload Payload) (string, error) {
	b, err := r.backend(OpCreate, ref, "")
	if err != nil {
		return "", err
	}
	id, err := b.Create(ctx, ref, payload)
	return id, wrapErr(OpCreate, ref, "", err)
}

// Upsert implements Adapter.
func (r *Router) Upsert(ctx context.Context, ref CollectionRef, id string, payload Payload) error {
	b, err := r.backend(OpUpsert, ref, id)
	if err != nil {
		return err
	}
	return wrapErr(OpUpsert, ref, id, b.Upsert(ctx, ref, id, payload))
}

// Delete implements Adapter.
func (r *Router) Delete(ctx context.Context, ref CollectionRef, id string) error {
	b, err := r.backend(OpDelete, ref, id)
	if err != nil {
		return err
	}
	return wrapErr(OpDelete, ref, id, b.Delete(ctx, ref, id))
}
