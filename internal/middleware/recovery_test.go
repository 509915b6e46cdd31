package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rubenfitness/backend/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
)

func TestPanicRecovery(t *testing.T) {
	metricsManager := metrics.NewTestManager()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("oops")
	})
	handler := PanicRecovery(metricsManager)(next)

	r := httptest.NewRequest("GET", "/workout/u1", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, r)
	})
}

func TestPanicRecovery_noPanic(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := PanicRecovery(nil)(next)

	r := httptest.NewRequest("GET", "/workout/u1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusTeapot, w.Code)
}
