package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"
)

const (
	treeTable = "tree"
	treePK    = "id"
)

type memoryLeaf struct {
	Key   string
	Value Payload
}

func memoryTreeSchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			treeTable: {
				Name: treeTable,
				Indexes: map[string]*memdb.IndexSchema{
					treePK: {
						Name:    treePK,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
}

// MemoryTree is an in-process KVTree used for local runs and tests.
// Values are copied in and out, so callers never alias stored state.
type MemoryTree struct {
	db *memdb.MemDB
}

// NewMemoryTree creates an empty tree.
func NewMemoryTree() (*MemoryTree, error) {
	db, err := memdb.NewMemDB(memoryTreeSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memory tree: %w", err)
	}
	return &MemoryTree{db: db}, nil
}

// ScanPrefix lists all leaves whose key starts with prefix, in key order.
func (t *MemoryTree) ScanPrefix(ctx context.Context, prefix string) ([]TreeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txn := t.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(treeTable, treePK+"_prefix", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %q: %w", prefix, err)
	}
	var entries []TreeEntry
	for obj := it.Next(); obj != nil; obj = it.Next() {
		leaf := obj.(*memoryLeaf)
		entries = append(entries, TreeEntry{Key: leaf.Key, Value: leaf.Value.Clone()})
	}
	return entries, nil
}

// Insert writes value under key, failing if the key already exists.
func (t *MemoryTree) Insert(ctx context.Context, key string, value Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := t.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(treeTable, treePK, key)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", key, err)
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	}
	if err := txn.Insert(treeTable, &memoryLeaf{Key: key, Value: value.Clone()}); err != nil {
		return fmt.Errorf("failed to insert %s: %w", key, err)
	}
	txn.Commit()
	return nil
}

// Upsert stores or replaces the value under key.
func (t *MemoryTree) Upsert(ctx context.Context, key string, value Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := t.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(treeTable, &memoryLeaf{Key: key, Value: value.Clone()}); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", key, err)
	}
	txn.Commit()
	return nil
}

// Remove deletes the leaf under key.
func (t *MemoryTree) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txn := t.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(treeTable, treePK, key)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", key, err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err := txn.Delete(treeTable, existing); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	txn.Commit()
	return nil
}
