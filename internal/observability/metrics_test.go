package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewMetrics("test", reg), reg
}

func TestRecordRun_Success(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRun(RunOutcome{
		Strategy:  "Market Maker",
		Duration:  250 * time.Millisecond,
		Processed: 900,
		Skipped:   3,
		Buys:      4,
		Sells:     6,
		Realized:  12.5,
		Position:  -2,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("Market Maker", "success")))
	assert.Equal(t, 900.0, testutil.ToFloat64(m.SnapshotsProcessed.WithLabelValues("Market Maker")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SnapshotsSkipped.WithLabelValues("Market Maker")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TradesTotal.WithLabelValues("Market Maker", "bid")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.TradesTotal.WithLabelValues("Market Maker", "ask")))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.RealizedPnL.WithLabelValues("Market Maker")))
	assert.Equal(t, -2.0, testutil.ToFloat64(m.FinalPosition.WithLabelValues("Market Maker")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestRecordRun_Failure(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordRun(RunOutcome{Strategy: "Momentum Strategy", Processed: 10, Err: errors.New("boom")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("Momentum Strategy", "error")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.TradesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LastSuccessfulRun))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	// None of these may panic
	m.RecordRun(RunOutcome{Strategy: "x"})
	m.RecordIngest(5)
	m.RecordReport()
	m.RecordArchiveUpload(nil)
	m.RecordDBQuery("postgres", "insert_run", time.Millisecond, nil)
}

func TestCountersAndHandler(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.RecordIngest(42)
	m.RecordReport()
	m.RecordArchiveUpload(nil)
	m.RecordArchiveUpload(errors.New("denied"))
	m.RecordDBQuery("postgres", "insert_run", 5*time.Millisecond, errors.New("timeout"))

	assert.Equal(t, 42.0, testutil.ToFloat64(m.SnapshotsIngested))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArchiveUploads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert_run")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_ingest_snapshots_total 42"))
}
