package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	return byName
}

func counterWithLabel(mf *dto.MetricFamily, value string) float64 {
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCollector_SyncFinished(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SyncStarted()
	c.SyncFinished(nil, 2*time.Second, 3, 12)
	c.SyncStarted()
	c.SyncFinished(errors.New("boom"), time.Second, 3, 12)

	families := gather(t, reg)
	require.Contains(t, families, "readinglists_syncs_total")
	assert.Equal(t, float64(1), counterWithLabel(families["readinglists_syncs_total"], "success"))
	assert.Equal(t, float64(1), counterWithLabel(families["readinglists_syncs_total"], "failure"))
	assert.Equal(t, float64(0), families["readinglists_syncs_in_progress"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, float64(3), families["readinglists_synced_lists"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, float64(12), families["readinglists_synced_entries"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, uint64(2), families["readinglists_sync_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestCollector_PushFailed(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.PushFailed("list_create")
	c.PushFailed("list_create")
	c.PushFailed("entry_add")

	families := gather(t, reg)
	require.Contains(t, families, "readinglists_push_failures_total")
	assert.Equal(t, float64(2), counterWithLabel(families["readinglists_push_failures_total"], "list_create"))
	assert.Equal(t, float64(1), counterWithLabel(families["readinglists_push_failures_total"], "entry_add"))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.PushFailed("entry_delete")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `readinglists_push_failures_total{kind="entry_delete"} 1`)
}
