package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrKeyNotFound is returned by a KVTree when a key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// ErrKeyExists is returned by a KVTree when inserting over an existing key.
var ErrKeyExists = errors.New("key already exists")

// TreeEntry is one leaf of a key-value tree.
type TreeEntry struct {
	Key   string
	Value Payload
}

// KVTree is a flat key-path store: values live under keys such as "registrations/<id>".
// It has no query or filter primitive beyond listing a key prefix.
type KVTree interface {
	ScanPrefix(ctx context.Context, prefix string) ([]TreeEntry, error)
	Insert(ctx context.Context, key string, value Payload) error
	Upsert(ctx context.Context, key string, value Payload) error
	Remove(ctx context.Context, key string) error
}

// TreeAdapter serves collections stored as "<collection>/<id>" paths in a KVTree.
type TreeAdapter struct {
	tree  KVTree
	newID func() string
}

// NewTreeAdapter creates an adapter over tree. New ids are random UUIDs.
func NewTreeAdapter(tree KVTree) *TreeAdapter {
	return &TreeAdapter{
		tree:  tree,
		newID: uuid.NewString,
	}
}

func collectionPrefix(ref CollectionRef) string {
	return string(ref) + "/"
}

func treeKey(ref CollectionRef, id string) (string, error) {
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return collectionPrefix(ref) + id, nil
}

// FetchAll reads every value under the collection path.
func (a *TreeAdapter) FetchAll(ctx context.Context, ref CollectionRef) ([]Record, error) {
	records, err := a.readAll(ctx, ref)
	if err != nil {
		return nil, &AdapterError{Op: OpFetchAll, Collection: ref, Cause: err}
	}
	return records, nil
}

// FetchFiltered reads the whole collection and filters locally; the tree has no filter primitive.
func (a *TreeAdapter) FetchFiltered(ctx context.Context, ref CollectionRef, filter Filter) ([]Record, error) {
	records, err := a.readAll(ctx, ref)
	if err != nil {
		return nil, &AdapterError{Op: OpFetchFiltered, Collection: ref, Cause: err}
	}
	return filterRecords(records, filter), nil
}

func (a *TreeAdapter) readAll(ctx context.Context, ref CollectionRef) ([]Record, error) {
	prefix := collectionPrefix(ref)
	entries, err := a.tree.ScanPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		id := strings.TrimPrefix(entry.Key, prefix)
		if id == "" || strings.Contains(id, "/") {
			log.Warn().Str("key", entry.Key).Msg("Skipping nested or empty key under collection path")
			continue
		}
		records = append(records, Record{ID: id, Payload: entry.Value})
	}
	return records, nil
}

// Create writes the payload under a freshly generated key.
func (a *TreeAdapter) Create(ctx context.Context, ref CollectionRef, payload Payload) (string, error) {
	id := a.newID()
	key, err := treeKey(ref, id)
	if err != nil {
		return "", &AdapterError{Op: OpCreate, Collection: ref, ID: id, Cause: err}
	}
	if err := a.tree.Insert(ctx, key, payload.Clone()); err != nil {
		return "", &AdapterError{Op: OpCreate, Collection: ref, ID: id, Cause: err}
	}
	return id, nil
}

// Upsert writes the full value under the key, replacing whatever was there.
func (a *TreeAdapter) Upsert(ctx context.Context, ref CollectionRef, id string, payload Payload) error {
	key, err := treeKey(ref, id)
	if err != nil {
		return &AdapterError{Op: OpUpsert, Collection: ref, ID: id, Cause: err}
	}
	if err := a.tree.Upsert(ctx, key, payload.Clone()); err != nil {
		return &AdapterError{Op: OpUpsert, Collection: ref, ID: id, Cause: err}
	}
	return nil
}

// Delete removes the key. A missing key counts as deleted.
func (a *TreeAdapter) Delete(ctx context.Context, ref CollectionRef, id string) error {
	key, err := treeKey(ref, id)
	if err != nil {
		return &AdapterError{Op: OpDelete, Collection: ref, ID: id, Cause: err}
	}
	err = a.tree.Remove(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		log.Warn().Str("key", key).Msg("Key already absent on delete")
		return nil
	}
	if err != nil {
		return &AdapterError{Op: OpDelete, Collection: ref, ID: id, Cause: err}
	}
	return nil
}
