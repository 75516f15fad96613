package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gamlvalidate"

// MetricsSink records run metrics in a private registry and writes them in
// Prometheus text format (node_exporter textfile collector) on run.finished.
type MetricsSink struct {
	path     string
	registry *prometheus.Registry
	mu       sync.Mutex

	// File metrics
	FilesTotal *prometheus.CounterVec

	// Schema metrics
	SchemaFetches   prometheus.Counter
	SchemaCacheHits prometheus.Counter

	// Run metrics
	RunDuration    prometheus.Gauge
	LastRunSuccess prometheus.Gauge
	LastRunTime    prometheus.Gauge
}

func NewMetricsSink(path string) (*MetricsSink, error) {
	if path == "" {
		return nil, fmt.Errorf("metrics file path required")
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &MetricsSink{
		path:     path,
		registry: reg,
		FilesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_total",
			Help:      "Files processed, by outcome",
		}, []string{"status"}),
		SchemaFetches: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "schema_fetches_total",
			Help:      "Schema documents downloaded",
		}),
		SchemaCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "schema_cache_hits_total",
			Help:      "Files whose schema was served from the cache",
		}),
		RunDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last run",
		}),
		LastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_success",
			Help:      "1 if every file in the last run was valid, else 0",
		}),
		LastRunTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run started",
		}),
	}, nil
}

// Registry exposes the sink's metrics for tests and embedding.
func (s *MetricsSink) Registry() *prometheus.Registry {
	return s.registry
}

func (s *MetricsSink) Write(v any) error {
	e, ok := v.(Event)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Type {
	case EventFileSchema:
		if e.Cached {
			s.SchemaCacheHits.Inc()
		}
	case EventSchemaFetch:
		s.SchemaFetches.Inc()
	case EventFileResult:
		if e.Result != nil {
			s.FilesTotal.WithLabelValues(string(e.Result.Status)).Inc()
		}
	case EventRunFinished:
		s.RunDuration.Set(time.Duration(e.DurationMS * int64(time.Millisecond)).Seconds())
		if e.Summary != nil {
			s.LastRunTime.Set(float64(e.Summary.Timestamp.UnixMilli()) / 1000)
			if e.Summary.Counts.AllValid {
				s.LastRunSuccess.Set(1)
			} else {
				s.LastRunSuccess.Set(0)
			}
		}
		if err := prometheus.WriteToTextfile(s.path, s.registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func (s *MetricsSink) Close() error {
	return nil
}
