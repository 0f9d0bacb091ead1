package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaihank/pii-scanner/internal/discovery"
)

func TestNotifySuccessfulScan(t *testing.T) {
	m := New()

	m.Notify(discovery.Event{Type: discovery.EventScanStarted, Dialect: "sqlite", Total: 2})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeScans))

	m.Notify(discovery.Event{Type: discovery.EventTableScanned, Dialect: "sqlite", Matches: 3})
	m.Notify(discovery.Event{Type: discovery.EventTableScanned, Dialect: "sqlite", Matches: 4})
	m.Notify(discovery.Event{Type: discovery.EventScanCompleted, Dialect: "sqlite", Duration: time.Second})

	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeScans))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tablesScanned.WithLabelValues("sqlite")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.matches.WithLabelValues("sqlite")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("sqlite", "success")))
}

func TestNotifyFailures(t *testing.T) {
	m := New()

	// rejected before connecting
	m.Notify(discovery.Event{Type: discovery.EventScanFailed, ErrorKind: "configuration"})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeScans))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("unknown", "configuration")))

	m.Notify(discovery.Event{Type: discovery.EventScanStarted, Dialect: "postgresql"})
	m.Notify(discovery.Event{Type: discovery.EventScanFailed, Dialect: "postgresql", ErrorKind: "query"})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeScans))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scans.WithLabelValues("postgresql", "query")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest("/full-pii-scan", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `piiscan_http_requests_total{code="200",route="/full-pii-scan"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
