package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moderation-console/internal/store"
)

func TestInstrumentAdapter(t *testing.T) {
	ctx := context.Background()
	tree, err := store.NewMemoryTree()
	require.NoError(t, err)
	m := NewManager()
	adapter := InstrumentAdapter(store.NewTreeAdapter(tree), m)

	id, err := adapter.Create(ctx, store.QuestionsCollection, store.Payload{"answered": false})
	require.NoError(t, err)
	_, err = adapter.FetchAll(ctx, store.QuestionsCollection)
	require.NoError(t, err)
	err = adapter.Upsert(ctx, store.QuestionsCollection, "", store.Payload{})
	require.Error(t, err)
	require.NoError(t, adapter.Delete(ctx, store.QuestionsCollection, id))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOpsTotal.WithLabelValues("Questions", store.OpCreate, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOpsTotal.WithLabelValues("Questions", store.OpFetchAll, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOpsTotal.WithLabelValues("Questions", store.OpUpsert, ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOpsTotal.WithLabelValues("Questions", store.OpDelete, ResultSuccess)))
}

func TestRecordMutation(t *testing.T) {
	m := NewManager()
	m.RecordMutation("projects", "toggle", nil)
	m.RecordMutation("projects", "toggle", errors.New("x"))
	m.RecordUpdate("callback", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("projects", "toggle", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutationsTotal.WithLabelValues("projects", "toggle", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updatesTotal.WithLabelValues("callback", ResultSuccess)))
}

func TestSetupRoutes(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		m := NewManager()
		r := SetupRoutes(m, func() error { return nil })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
		assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/healthz", "200")))
	})

	t.Run("Unhealthy", func(t *testing.T) {
		r := SetupRoutes(NewManager(), func() error { return errors.New("mongo unreachable") })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "mongo unreachable")
	})

	t.Run("Metrics", func(t *testing.T) {
		m := NewManager()
		m.RecordUpdate("message", nil)
		r := SetupRoutes(m, nil)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), `console_updates_total{kind="message",result="success"} 1`))
	})
}
