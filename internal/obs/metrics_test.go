package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHTTPObsRecordsMatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics("test", nil, reg)

	r := chi.NewRouter()
	r.Use(HTTPObs{Metrics: m}.Middleware)
	r.Get("/events/{eventId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events/1", nil))

	require.Equal(t, 1.0, testutil.ToFloat64(m.ReqTotal.WithLabelValues(http.MethodGet, "/events/{eventId}", "204")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.InFlight))
}

func TestNewHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewHTTPMetrics("test", nil, reg)
	second := NewHTTPMetrics("test", nil, reg)
	require.Same(t, first.ReqTotal, second.ReqTotal)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Nil(t, ParseBucketsCSV(" "))
	require.Equal(t, []float64{5, 20}, ParseBucketsCSV("5, x, -1, 20"))
}
