package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// CollectionRef names a remote collection ("projects", "registrations", "Questions").
type CollectionRef string

// Collections used by the console.
const (
	ProjectsCollection      CollectionRef = "projects"
	RegistrationsCollection CollectionRef = "registrations"
	QuestionsCollection     CollectionRef = "Questions"
)

// Operation names reported in AdapterError.
const (
	OpFetchAll      = "fetch_all"
	OpFetchFiltered = "fetch_filtered"
	OpCreate        = "create"
	OpUpsert        = "upsert"
	OpDelete        = "delete"
)

// Payload is the untyped field set of a remote record, without its id.
type Payload map[string]interface{}

// Clone returns a shallow copy of the payload. String slices are copied so the
// caller never shares a backing array with the store.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}

// Record is one remote record: the store-assigned id plus its payload.
type Record struct {
	ID      string
	Payload Payload
}

// Filter is an exact-match equality predicate on a single payload field.
type Filter struct {
	Field string
	Value interface{}
}

// Matches reports whether the payload satisfies the filter.
func (f Filter) Matches(p Payload) bool {
	v, ok := p[f.Field]
	if !ok {
		return false
	}
	return reflect.DeepEqual(v, f.Value)
}

// Adapter is the single-shape interface over the remote backends. Callers never
// need to know which backend serves a collection.
type Adapter interface {
	FetchAll(ctx context.Context, ref CollectionRef) ([]Record, error)
	FetchFiltered(ctx context.Context, ref CollectionRef, filter Filter) ([]Record, error)
	Create(ctx context.Context, ref CollectionRef, payload Payload) (string, error)
	Upsert(ctx context.Context, ref CollectionRef, id string, payload Payload) error
	Delete(ctx context.Context, ref CollectionRef, id string) error
}

// ErrUnknownCollection is returned when no backend serves a collection.
var ErrUnknownCollection = errors.New("unknown collection")

// ErrInvalidID is returned when an id cannot be used by the backend.
var ErrInvalidID = errors.New("invalid record id")

// AdapterError is the only kind of failure an Adapter returns.
type AdapterError struct {
	Op         string
	Collection CollectionRef
	ID         string
	Cause      error
}

func (e *AdapterError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s on %s/%s failed: %v", e.Op, e.Collection, e.ID, e.Cause)
	}
	return fmt.Sprintf("store %s on %s failed: %v", e.Op, e.Collection, e.Cause)
}

func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// wrapErr builds an AdapterError, leaving an existing one untouched.
func wrapErr(op string, ref CollectionRef, id string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return err
	}
	return &AdapterError{Op: op, Collection: ref, ID: id, Cause: err}
}

// filterRecords keeps the records matching f, preserving order.
func filterRecords(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r.Payload) {
			out = append(out, r)
		}
	}
	return out
}
