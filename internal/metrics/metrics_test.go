package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLine("ERROR")
	m.ObserveRegion("test", "passed")
	m.ObserveUnit(time.Millisecond, 3)
	m.ObserveReset("content")
	m.ObservePoll(nil)
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLine("ERROR")
	m.ObserveLine("ERROR")
	m.ObserveLine("INFO")
	m.ObserveRegion("test", "failed")
	m.ObserveUnit(3*time.Millisecond, 42)
	m.ObservePoll(nil)
	m.ObservePoll(errors.New("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.lines.WithLabelValues("ERROR")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.lines.WithLabelValues("INFO")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.regions.WithLabelValues("test", "failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.units), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(m.backlog), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.polls.WithLabelValues("error")), 0)

	m.ObserveReset("reload")
	assert.InDelta(t, 0, testutil.ToFloat64(m.backlog), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.resets.WithLabelValues("reload")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
