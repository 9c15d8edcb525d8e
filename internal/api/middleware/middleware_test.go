package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpgdash/internal/api/apierr"
	"github.com/mcoot/rpgdash/internal/metrics"
	"github.com/mcoot/rpgdash/internal/services/payment"
	"github.com/mcoot/rpgdash/internal/testutil"
)

func newTestRouter(m *metrics.Manager) *mux.Router {
	r := mux.NewRouter()
	r.Use(Recovery(testutil.NopLogger(), m))
	r.Use(Metrics(m))
	r.HandleFunc("/players/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.HandleFunc("/boom/{id}", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	r.HandleFunc("/abort", func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	r.Handle("/payments/webhook", WebhookRecovery(testutil.NopLogger(), m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("reconciler exploded")
	})))
	return r
}

func scrape(t *testing.T, m *metrics.Manager) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestRecovery_WritesInternalErrorAndCounts(t *testing.T) {
	m := metrics.NewManager(metrics.WithNamespace("mwtest"))
	router := newTestRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom/ayla", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierr.CodeInternalError, body.Error.Code)

	assert.Contains(t, scrape(t, m), `mwtest_http_panics_total{route="/boom/{id}"} 1`)
}

func TestWebhookRecovery_AcknowledgesWith200(t *testing.T) {
	m := metrics.NewManager(metrics.WithNamespace("mwtest"))
	router := newTestRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(`{"type":"payment"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var ack payment.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack.Received)
	assert.Equal(t, payment.OutcomeCreditFailed, ack.Outcome)
	assert.NotEmpty(t, ack.Error)

	assert.Contains(t, scrape(t, m), `mwtest_http_panics_total{route="/payments/webhook"} 1`)
}

func TestRecovery_ReraisesAbortHandler(t *testing.T) {
	router := newTestRouter(nil)

	assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/abort", nil))
	})
}

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	m := metrics.NewManager(metrics.WithNamespace("mwtest"))
	router := newTestRouter(m)

	for _, id := range []string{"ayla", "bo"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	out := scrape(t, m)
	assert.Contains(t, out, `mwtest_http_requests_total{method="GET",route="/players/{id}",status="418"} 2`)
	assert.False(t, strings.Contains(out, "ayla"))
}

func TestCompress_SkipsSmallAndStreamingResponses(t *testing.T) {
	compress, err := Compress()
	require.NoError(t, err)

	large := strings.Repeat(`{"gold":1}`, 200)
	h := compress(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", r.URL.Query().Get("ct"))
		_, _ = w.Write([]byte(large))
	}))

	req := httptest.NewRequest(http.MethodGet, "/?ct=application/json", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	req = httptest.NewRequest(http.MethodGet, "/?ct=text/event-stream", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, large, rec.Body.String())
}
