package store

import (
	"fmt"
	"strings"
	"time"

	"moderation-console/internal/config"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// ConnectCouchbase opens the cluster and the configured bucket and waits until both are ready.
func ConnectCouchbase(cfg *config.Config) (*gocb.Cluster, *gocb.Bucket, error) {
	connectionString := cfg.CouchbaseURL
	if strings.HasPrefix(connectionString, "http://") {
		connectionString = "couchbase://" + strings.TrimPrefix(connectionString, "http://")
	} else if !strings.Contains(connectionString, "://") {
		connectionString = "couchbases://" + connectionString
	}

	cluster, err := gocb.Connect(connectionString, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: cfg.CouchbaseUsername,
			Password: cfg.CouchbasePassword,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	if err = cluster.WaitUntilReady(30*time.Second, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, nil, fmt.Errorf("failed to wait for cluster: %w", err)
	}

	bucket := cluster.Bucket(cfg.CouchbaseBucket)
	if err = bucket.WaitUntilReady(10*time.Second, nil); err != nil {
		_ = cluster.Close(nil)
		return nil, nil, fmt.Errorf("bucket %q is not accessible: %w", cfg.CouchbaseBucket, err)
	}
	log.Info().Str("bucket", cfg.CouchbaseBucket).Msg("Successfully connected to Couchbase")

	return cluster, bucket, nil
}
