package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RecordTick("NIFTY", time.Unix(1700000000, 0), 2*time.Millisecond)
	m.RecordTick("NIFTY", time.Unix(1700000060, 0), 3*time.Millisecond)
	m.RecordDecision("CALL", true, false)
	m.RecordDecision("", false, true)
	m.RecordPositionOpened()
	m.RecordPositionOpened()
	m.RecordPositionClosed("FINAL_TARGET_HIT", 16)
	m.RecordDBQuery("insert_decision", 0.01, errors.New("locked"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TicksProcessed.WithLabelValues("NIFTY")))
	assert.Equal(t, 1700000060.0, testutil.ToFloat64(m.LastTickTimestamp))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntryDecisions.WithLabelValues("CALL", "enter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntryDecisions.WithLabelValues("NONE", "skip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FlatMarkets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenPositions))
	assert.Equal(t, 16.0, testutil.ToFloat64(m.RealizedProfitPoints))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("insert_decision")))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.WatchdogResets.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_health_watchdog_resets_total 1")
}
