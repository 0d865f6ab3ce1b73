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
)

func TestNewMetrics_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.EdgeRequestsTotal.WithLabelValues("reject", "TokenExpired").Inc()
	m.TenantSpoofAttemptsTotal.Inc()

	if got := testutil.ToFloat64(m.EdgeRequestsTotal.WithLabelValues("reject", "TokenExpired")); got != 1 {
		t.Errorf("edge counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TenantSpoofAttemptsTotal); got != 1 {
		t.Errorf("spoof counter = %v, want 1", got)
	}
}

func TestNewMetrics_NilRegistry(t *testing.T) {
	m := NewMetrics(nil)
	if m == nil {
		t.Fatal("expected metrics with internal registry")
	}
}

func TestObserveStoreOperation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveStoreOperation("get_robot", "memory", nil, 5*time.Millisecond)
	m.ObserveStoreOperation("get_robot", "memory", errors.New("boom"), time.Millisecond)

	if got := testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("get_robot", "memory", "success")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("get_robot", "memory", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestInstrumentHandler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	handler := m.InstrumentHandler("/tenants/{tenant_id}/robots/{robot_id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/tenants/t1/robots/r5", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/tenants/{tenant_id}/robots/{robot_id}", "404")); got != 1 {
		t.Errorf("request count = %v, want 1", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.IngestMessagesTotal.WithLabelValues("routed").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fleetgate_ingest_messages_total") {
		t.Error("expected ingest counter in exposition output")
	}
}
