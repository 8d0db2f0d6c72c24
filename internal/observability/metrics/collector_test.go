package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.LinkRequested("ok")
	c.LinkRequested("ok")
	c.LinkRequested("invalid_email")
	c.SignInCompleted("provider_error")
	c.SectionSaved("conflict")
	c.RoleLookupDegraded(errors.New("connection refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.linksSent.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.linksSent.WithLabelValues("invalid_email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.signins.WithLabelValues("provider_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.contentSaves.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.roleDegraded.WithLabelValues("errors_errorstring")))
}

func TestCollector_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.SignInCompleted("ok")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `folio_signins_completed_total{result="ok"} 1`)
}
