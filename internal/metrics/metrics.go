// Package metrics instruments the console pipeline with Prometheus
// collectors. A nil *Metrics is valid and records nothing, so callers never
// need to check whether metrics are enabled.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "consolelens"

// Metrics holds the pipeline collectors.
type Metrics struct {
	lines        *prometheus.CounterVec
	regions      *prometheus.CounterVec
	units        prometheus.Counter
	unitDuration prometheus.Histogram
	backlog      prometheus.Gauge
	resets       *prometheus.CounterVec
	polls        *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		lines: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Console lines classified, by severity level.",
		}, []string{"level"}),
		regions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_total",
			Help:      "Navigation regions closed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		units: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_units_total",
			Help:      "Render work units executed.",
		}),
		unitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_unit_duration_seconds",
			Help:      "Wall time spent in a single render work unit.",
			Buckets:   []float64{.001, .002, .004, .008, .016, .032, .05, .1, .25},
		}),
		backlog: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "render_backlog_lines",
			Help:      "Lines waiting in the render backlog.",
		}),
		resets: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Pipeline resets, by reason.",
		}, []string{"reason"}),
		polls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Source polls, by result.",
		}, []string{"result"}),
	}
}

// ObserveLine counts one classified line.
func (m *Metrics) ObserveLine(level string) {
	if m == nil {
		return
	}
	m.lines.WithLabelValues(level).Inc()
}

// ObserveRegion counts one closed region.
func (m *Metrics) ObserveRegion(kind, outcome string) {
	if m == nil {
		return
	}
	m.regions.WithLabelValues(kind, outcome).Inc()
}

// ObserveUnit records a finished work unit and the backlog left behind.
func (m *Metrics) ObserveUnit(elapsed time.Duration, backlog int) {
	if m == nil {
		return
	}
	m.units.Inc()
	m.unitDuration.Observe(elapsed.Seconds())
	m.backlog.Set(float64(backlog))
}

// ObserveReset counts a pipeline reset.
func (m *Metrics) ObserveReset(reason string) {
	if m == nil {
		return
	}
	m.resets.WithLabelValues(reason).Inc()
	m.backlog.Set(0)
}

// ObservePoll counts a source poll.
func (m *Metrics) ObservePoll(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.polls.WithLabelValues(result).Inc()
}

// Serve exposes reg on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}
