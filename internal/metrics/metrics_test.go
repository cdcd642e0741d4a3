package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/readinglists-server/internal/metrics"
)

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/books/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/books/1", "/books/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	expected := `
# HELP readinglists_http_requests_total Total number of HTTP requests handled.
# TYPE readinglists_http_requests_total counter
readinglists_http_requests_total{method="GET",route="/books/{id}",status="404"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "readinglists_http_requests_total"))
}

func TestCounters(t *testing.T) {
	m := metrics.New()

	m.AuthFailure("expired")
	m.AuthFailure("expired")
	m.CascadePatched(3)
	m.CascadePatched(0)

	count, err := testutil.GatherAndCount(m.Registry(), "readinglists_auth_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `readinglists_auth_failures_total{kind="expired"} 2`)
	assert.Contains(t, w.Body.String(), "readinglists_store_cascade_patches_total 3")
}
