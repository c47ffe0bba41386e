package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// CouchbaseTree stores tree leaves as documents in the bucket's default collection,
// keyed by their full path.
type CouchbaseTree struct {
	cluster    *gocb.Cluster
	bucketName string
	collection *gocb.Collection
}

// NewCouchbaseTree creates a tree over the bucket's default collection.
// Listing a prefix needs a primary index on the bucket.
func NewCouchbaseTree(cluster *gocb.Cluster, bucket *gocb.Bucket) *CouchbaseTree {
	return &CouchbaseTree{
		cluster:    cluster,
		bucketName: bucket.Name(),
		collection: bucket.DefaultCollection(),
	}
}

type couchbaseTreeRow struct {
	ID  string                 `json:"id"`
	Doc map[string]interface{} `json:"doc"`
}

// ScanPrefix lists all documents whose key starts with prefix, in key order.
func (t *CouchbaseTree) ScanPrefix(ctx context.Context, prefix string) ([]TreeEntry, error) {
	rows, err := t.cluster.Query(prefixScanQuery(t.bucketName), &gocb.QueryOptions{
		Context:         ctx,
		NamedParameters: map[string]interface{}{"prefix": likePattern(prefix)},
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var entries []TreeEntry
	for rows.Next() {
		var row couchbaseTreeRow
		if err := rows.Row(&row); err != nil {
			return nil, fmt.Errorf("failed to decode row under %q: %w", prefix, err)
		}
		entries = append(entries, TreeEntry{Key: row.ID, Value: Payload(row.Doc)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows under %q: %w", prefix, err)
	}
	log.Debug().Str("prefix", prefix).Int("count", len(entries)).Msg("Scanned tree prefix")
	return entries, nil
}

// Insert writes value under key, failing if the key already exists.
func (t *CouchbaseTree) Insert(ctx context.Context, key string, value Payload) error {
	_, err := t.collection.Insert(key, value, &gocb.InsertOptions{Context: ctx})
	return keyError("insert", key, err)
}

// Upsert stores or replaces the value under key.
func (t *CouchbaseTree) Upsert(ctx context.Context, key string, value Payload) error {
	_, err := t.collection.Upsert(key, value, &gocb.UpsertOptions{Context: ctx})
	return keyError("upsert", key, err)
}

// Remove deletes the document under key.
func (t *CouchbaseTree) Remove(ctx context.Context, key string) error {
	_, err := t.collection.Remove(key, &gocb.RemoveOptions{Context: ctx})
	return keyError("delete", key, err)
}

// prefixScanQuery selects id and body of every document in the bucket's default
// collection whose id matches $prefix, ordered by id.
func prefixScanQuery(bucketName string) string {
	return fmt.Sprintf(
		"SELECT META(t).id AS id, t AS doc FROM `%s`.`_default`.`_default` AS t WHERE META(t).id LIKE $prefix ORDER BY META(t).id",
		strings.ReplaceAll(bucketName, "`", "``"),
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern matches keys starting with prefix. LIKE wildcards inside the prefix are escaped.
func likePattern(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

// keyError maps gocb key-value errors onto the tree's sentinels.
func keyError(op, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gocb.ErrDocumentExists):
		return fmt.Errorf("%w: %s", ErrKeyExists, key)
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	default:
		return fmt.Errorf("failed to %s document %s: %w", op, key, err)
	}
}
