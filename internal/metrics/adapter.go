package metrics

import (
	"context"
	"time"

	"moderation-console/internal/store"
)

// InstrumentedAdapter records count and latency of every call to the wrapped adapter.
type InstrumentedAdapter struct {
	next    store.Adapter
	metrics *Manager
}

// InstrumentAdapter wraps next so each operation is observed by m.
func InstrumentAdapter(next store.Adapter, m *Manager) *InstrumentedAdapter {
	return &InstrumentedAdapter{next: next, metrics: m}
}

func (a *InstrumentedAdapter) observe(ref store.CollectionRef, op string, start time.Time, err error) {
	a.metrics.ObserveStoreOp(string(ref), op, time.Since(start), err)
}

func (a *InstrumentedAdapter) FetchAll(ctx context.Context, ref store.CollectionRef) ([]store.Record, error) {
	start := time.Now()
	records, err := a.next.FetchAll(ctx, ref)
	a.observe(ref, store.OpFetchAll, start, err)
	return records, err
}

func (a *InstrumentedAdapter) FetchFiltered(ctx context.Context, ref store.CollectionRef, filter store.Filter) ([]store.Record, error) {
	start := time.Now()
	records, err := a.next.FetchFiltered(ctx, ref, filter)
	a.observe(ref, store.OpFetchFiltered, start, err)
	return records, err
}

func (a *InstrumentedAdapter) Create(ctx context.Context, ref store.CollectionRef, payload store.Payload) (string, error) {
	start := time.Now()
	id, err := a.next.Create(ctx, ref, payload)
	a.observe(ref, store.OpCreate, start, err)
	return id, err
}

func (a *InstrumentedAdapter) Upsert(ctx context.Context, ref store.CollectionRef, id string, payload store.Payload) error {
	start := time.Now()
	err := a.next.Upsert(ctx, ref, id, payload)
	a.observe(ref, store.OpUpsert, start, err)
	return err
}

func (a *InstrumentedAdapter) Delete(ctx context.Context, ref store.CollectionRef, id string) error {
	start := time.Now()
	err := a.next.Delete(ctx, ref, id)
	a.observe(ref, store.OpDelete, start, err)
	return err
}
