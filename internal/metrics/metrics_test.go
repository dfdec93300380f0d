package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAttempt(t *testing.T) {
	m := New()
	m.ObserveAttempt(true)
	m.ObserveAttempt(true)
	m.ObserveAttempt(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AttemptsRecorded.WithLabelValues("correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsRecorded.WithLabelValues("incorrect")))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ExamsGenerated.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ExamsGenerated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ExamsGenerated))
}

func TestHandler(t *testing.T) {
	m := New()
	m.TrainingOrders.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "codequiz_selection_training_orders_total 1"))
}
