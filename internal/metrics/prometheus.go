package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gitdl"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration   *prom.HistogramVec
	runDuration     prom.Histogram
	runOutcomes     *prom.CounterVec
	downloadedBytes prom.Counter
	streamedBytes   prom.Counter
	lockWaits       prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   prom.DefBuckets,
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Pipeline runs by outcome (success or error code)",
		}, []string{"outcome"}),
		downloadedBytes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes written from upstream into raw archives",
		}),
		streamedBytes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "streamed_bytes_total",
			Help:      "Bytes of repacked archives sent to clients",
		}),
		lockWaits: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "lock_waits_total",
			Help:      "Runs that had to wait for an identical in-flight request",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.runOutcomes, pr.downloadedBytes, pr.streamedBytes, pr.lockWaits)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddDownloadedBytes(n int64) {
	if n > 0 {
		p.downloadedBytes.Add(float64(n))
	}
}

func (p *PrometheusRecorder) AddStreamedBytes(n int64) {
	if n > 0 {
		p.streamedBytes.Add(float64(n))
	}
}

func (p *PrometheusRecorder) IncLockWait() {
	p.lockWaits.Inc()
}

// HTTPHandler returns an http.Handler serving the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
