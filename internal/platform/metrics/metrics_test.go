package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("POST", "/search", 200, 15*time.Millisecond)
	m.ObserveRequest("POST", "/search", 403, 5*time.Millisecond)
	m.ObserveRequest("POST", "/search", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/search", "403")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}
