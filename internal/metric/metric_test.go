package metric

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_LoadLifecycle(t *testing.T) {
	m := NewMetrics()

	m.LoadStarted()
	m.LoadStarted()
	m.LoadSuperseded()
	m.LoadFinished(3, 2, 1, 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues("superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues("finished")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SceneNodes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SceneConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSkipped))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.DuplicateRejected()
	m.ConnectionsRefreshed(0)
	m.ConnectionsRefreshed(4)
	m.FramePublished()
	m.ClientsChanged(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesRejected))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Refreshed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesPublished))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SSEClients))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Metrics.LoadStarted()
	r.Metrics.ObserveRequest(http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "schematic_scene_loads_total"))
	assert.True(t, strings.Contains(body, "schematic_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
